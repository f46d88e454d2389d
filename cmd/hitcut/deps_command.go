package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hitcut/internal/deps"
	"hitcut/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools the configuration relies on",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cfg)
			tbl := newSummaryTable(textColumn("Tool"), textColumn("Command"), textColumn("Status"), detailColumn("Used for"), detailColumn("Detail"))
			for _, s := range statuses {
				state := colorize("ok", statusOK, color)
				if !s.Available {
					if s.Optional {
						state = colorize("missing (optional)", statusWarn, color)
					} else {
						state = colorize("missing", statusError, color)
					}
				}
				tbl.add(s.Name, s.Command, state, s.Description, s.Detail)
			}
			tbl.writeTo(out)

			missing := deps.MissingRequired(statuses)
			if len(missing) > 0 {
				return &exitError{code: 1, msg: fmt.Sprintf("%d required tool(s) missing", len(missing))}
			}
			fmt.Fprintf(out, "Trim ledger: %s (enabled: %s)\n", cfg.Trim.LedgerPath, yesNo(cfg.Trim.Ledger))
			return nil
		},
	}
}
