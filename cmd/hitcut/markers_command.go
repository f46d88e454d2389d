package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hitcut/internal/config"
	"hitcut/internal/fade"
	"hitcut/internal/host/smfproject"
	"hitcut/internal/markers"
	"hitcut/internal/render"
	"hitcut/internal/services"
)

func newMarkersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "markers [project.mid]",
		Short: "List project markers with the file each one renders to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			path := cfg.Project.Path
			if len(args) == 1 {
				if path, err = config.ExpandPath(args[0]); err != nil {
					return err
				}
			}
			if path == "" {
				return services.Wrap(services.ErrConfiguration, "markers", "project", "no project file given", nil)
			}
			project, err := smfproject.Load(path, smfproject.WithLogger(logger))
			if err != nil {
				return err
			}

			list := markers.List(project)
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintf(out, "No markers in %s\n", path)
				return nil
			}
			tbl := newSummaryTable(numericColumn("#"), textColumn("Name"), numericColumn("Time"), numericColumn("Fade"), textColumn("File"))
			for _, m := range list {
				tbl.add(
					fmt.Sprintf("%d", m.Index),
					m.Name,
					formatSeconds(m.Time),
					formatSeconds(fade.Window(project, m.Time, cfg.Fade.BarCount)),
					render.Filename(cfg.Render.FilenamePattern, cfg.Render.BaseIndex, m.Index),
				)
			}
			tbl.writeTo(out)
			return nil
		},
	}
}
