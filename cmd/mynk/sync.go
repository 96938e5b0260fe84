package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mynk/mynk/internal/client/sync"
	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/mynk/mynk/internal/syncsdk"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync round for the root containing the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd)
		},
	}
}

func runSync(cmd *cobra.Command) error {
	ws, err := findWorkspace()
	if err != nil {
		return err
	}
	return syncWorkspace(cmd, ws)
}

func findWorkspace() (*workspace.Workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return workspace.Find(cwd)
}

func syncWorkspace(cmd *cobra.Command, ws *workspace.Workspace) error {
	sdk, err := syncsdk.New(&syncsdk.SyncSDKConfig{
		BaseURL: ws.ServerURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return err
	}

	engine := sync.NewSyncEngine(ws, afero.NewOsFs(), sdk)
	result, err := engine.RunSync(cmd.Context())
	if err != nil {
		return err
	}

	printRoundResult(cmd, result)
	return nil
}

func printRoundResult(cmd *cobra.Command, result *sync.RoundResult) {
	out := cmd.OutOrStdout()

	if !result.HasChanges() {
		fmt.Fprintf(out, "%s %s\n", green.Render("Up to date"), gray.Render(fmt.Sprintf("(%d files)", result.Unchanged)))
		return
	}

	fmt.Fprintf(out, "%s %s\n", green.Render("Synced"), gray.Render(result.RequestID))
	fmt.Fprintf(out, "  sent:     %s uploaded, %s deleted (%s)\n",
		cyan.Render(fmt.Sprint(result.Uploaded)),
		cyan.Render(fmt.Sprint(result.Deleted)),
		humanize.Bytes(uint64(result.BytesSent)),
	)
	fmt.Fprintf(out, "  received: %s written, %s removed\n",
		cyan.Render(fmt.Sprint(result.Written)),
		cyan.Render(fmt.Sprint(result.Removed)),
	)
	if result.Skipped > 0 {
		fmt.Fprintf(out, "  %s %d directives for ignored paths\n", yellow.Render("skipped"), result.Skipped)
	}
	fmt.Fprintf(out, "  took:     %s\n", result.TookTotal.Round(time.Millisecond))
}
