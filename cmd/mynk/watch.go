package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mynk/mynk/internal/client/sync"
	"github.com/mynk/mynk/internal/syncsdk"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newWatchCmd())
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep syncing: on local changes and every interval, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			noNotify, _ := cmd.Flags().GetBool("no-notify")
			return runWatch(cmd, interval, !noNotify)
		},
	}

	cmd.Flags().Duration("interval", sync.DefaultWatchInterval, "longest wait between rounds, shorter after activity")
	cmd.Flags().Bool("no-notify", false, "only sync on the interval, do not watch the tree")
	return cmd
}

func runWatch(cmd *cobra.Command, interval time.Duration, notify bool) error {
	ws, err := findWorkspace()
	if err != nil {
		return err
	}

	sdk, err := syncsdk.New(&syncsdk.SyncSDKConfig{
		BaseURL: ws.ServerURL,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return err
	}

	engine := sync.NewSyncEngine(ws, afero.NewOsFs(), sdk)
	mgr := sync.NewManager(engine, interval).OnRound(func(result *sync.RoundResult, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", yellow.Render("round failed:"), err)
			return
		}
		if result.HasChanges() {
			printRoundResult(cmd, result)
		}
	})
	if notify {
		mgr.WithWatcher(sync.NewFileWatcher(ws.Root))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", bold.Render("Watching"), ws.Root, gray.Render("(ctrl+c to stop)"))
	if err := mgr.Run(cmd.Context()); err != nil {
		return err
	}
	slog.Debug("watch stopped", "root", ws.Root)
	return nil
}
