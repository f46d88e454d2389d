// Package smfproject implements host.Project over a Standard MIDI File.
//
// The project is loaded into memory: every MIDI track with notes becomes a
// host track holding one item, marker meta events become markers, and tempo
// and meter events form the tempo map. Automation lanes are stored as CC7
// channel volume. Render writes a MIDI snapshot of the current state, clipped
// to the render bounds, and hands it to a Renderer such as an external
// synthesizer command.
package smfproject
