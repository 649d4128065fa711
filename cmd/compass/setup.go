package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contraceptive-compass-server/internal/setup"
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the MCP server with a desktop client",
	}
	cmd.PersistentFlags().String("client-config", "", "Desktop client config file (defaults to the platform location)")

	desktop := &cobra.Command{
		Use:   "desktop",
		Short: "Add or update the server entry in the desktop client config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("client-config")
			binary, _ := cmd.Flags().GetString("binary")
			dataDir, _ := cmd.Flags().GetString("data-dir")

			if err := setup.EnsureDataDir(dataDir); err != nil {
				return err
			}
			written, err := setup.Configure(setup.Options{
				ConfigPath: configPath,
				BinaryPath: binary,
				DataDir:    dataDir,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", setup.ServerKey, written)
			fmt.Fprintln(cmd.OutOrStdout(), "Restart the desktop client to load the server.")
			return nil
		},
	}
	desktop.Flags().String("binary", "", "Path to the mcp-server-lite binary (searched for when empty)")
	desktop.Flags().String("data-dir", "", "Data directory passed to the server as "+setup.DataDirEnv)

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the server is registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("client-config")
			st := setup.GetStatus(configPath)

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(out, st)
			}

			fmt.Fprintf(out, "Config file: %s\n", st.ConfigPath)
			fmt.Fprintf(out, "Registered:  %t\n", st.Configured)
			if st.ServerPath != "" {
				fmt.Fprintf(out, "Server:      %s\n", st.ServerPath)
			}
			fmt.Fprintf(out, "Data dir:    %s\n", st.DataDir)
			for _, issue := range st.Issues {
				fmt.Fprintf(out, "  ! %s\n", issue)
			}
			return nil
		},
	}
	status.Flags().Bool("json", false, "Print status as JSON")

	cmd.AddCommand(desktop, status)
	return cmd
}
