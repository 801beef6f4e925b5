package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"easynetes/internal/config"
	"easynetes/internal/version"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "easynetes",
		Short:         "Admin console for CMDB hosts, Kubernetes clusters and CI/CD settings",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: easynetes.yaml in ., ./config or /etc/easynetes)")
	root.PersistentFlags().String("root_path", ".", "directory for logs, users and the sqlite database")
	root.PersistentFlags().String("logging.level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(), newUserCmd(), newConfigCmd(), newVersionCmd())
	return root
}

func newConfigCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return err
			}
			if output != "" {
				if err := config.WriteFile(cfg, output); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the configuration to this file instead of printing it")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			info := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "easynetes %s\n", info.Version)
			if info.Commit != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", info.Commit)
			}
			if info.Date != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "built: %s\n", info.Date)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "go: %s %s\n", info.GoVersion, info.Platform)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
