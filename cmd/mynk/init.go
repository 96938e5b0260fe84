package main

import (
	"fmt"
	"os"

	"github.com/mynk/mynk/internal/client/workspace"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Make the current directory a sync root and run the first sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, uri)
		},
	}

	cmd.Flags().StringVarP(&uri, "uri", "u", "", "base URI of the remote")
	cmd.MarkFlagRequired("uri")

	return cmd
}

func runInit(cmd *cobra.Command, uri string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	ws, err := workspace.Init(cwd, uri)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized %s\n", green.Render(ws.Root))
	fmt.Fprintf(out, "Remote:      %s\n", cyan.Render(ws.ServerURL))

	return syncWorkspace(cmd, ws)
}
