package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveCompanion locates a helper binary that ships alongside primary, such
// as ffprobe next to a custom ffmpeg build. An explicit value always wins. A
// companion in the same directory as the resolved primary is preferred over
// one found on PATH. When neither exists the bare name is returned so the
// caller reports a useful "not found" message.
func ResolveCompanion(explicit, primary, name string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if primary = strings.TrimSpace(primary); primary != "" {
		if resolved, err := exec.LookPath(primary); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName(name))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
