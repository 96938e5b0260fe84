package main

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mynk/mynk/internal/client/sync"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [pattern...]",
		Short: "Show what the next sync would send, without contacting the remote",
		Long:  "Show what the next sync would send, without contacting the remote.\nPatterns are globs such as 'docs/**/*.md' that limit the listing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, pattern := range args {
				if !doublestar.ValidatePattern(pattern) {
					return fmt.Errorf("invalid pattern %q", pattern)
				}
			}

			ws, err := findWorkspace()
			if err != nil {
				return err
			}

			// the engine is only used for planning, it never reaches the remote
			engine := sync.NewSyncEngine(ws, afero.NewOsFs(), nil)
			plan, err := engine.Plan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Root:   %s\n", bold.Render(ws.Root))
			fmt.Fprintf(out, "Remote: %s\n", cyan.Render(ws.ServerURL))

			pending := filterEntries(plan.State.Pending(), args)
			if len(pending) == 0 {
				fmt.Fprintf(out, "%s %s\n", green.Render("Nothing to sync"), gray.Render(fmt.Sprintf("(%d files)", len(plan.State))))
				return nil
			}

			fmt.Fprintln(out)
			for _, entry := range pending {
				fmt.Fprintf(out, "  %s %s %s\n", actionLabel(entry.Action), entry.Filename, gray.Render(fmt.Sprintf("v%d", entry.Version)))
			}
			fmt.Fprintf(out, "\n%d to sync, %d unchanged\n", len(pending), plan.Stats.Unchanged)
			return nil
		},
	}
}

func actionLabel(action sync.Action) string {
	label := fmt.Sprintf("%-6s", action.String())
	switch action {
	case sync.ActionCreate:
		return green.Render(label)
	case sync.ActionEdit:
		return yellow.Render(label)
	case sync.ActionDelete:
		return red.Render(label)
	default:
		return gray.Render(label)
	}
}

// filterEntries keeps entries matching any of the patterns, all of them when there are none
func filterEntries(entries []*sync.FileEntry, patterns []string) []*sync.FileEntry {
	if len(patterns) == 0 {
		return entries
	}

	filtered := make([]*sync.FileEntry, 0, len(entries))
	for _, entry := range entries {
		for _, pattern := range patterns {
			if ok, _ := doublestar.Match(pattern, entry.Filename); ok {
				filtered = append(filtered, entry)
				break
			}
		}
	}
	return filtered
}
