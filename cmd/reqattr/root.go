package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "reqattr",
		Short: "Resolve and inspect HTTP request attributes",
		Long: `reqattr resolves the attributes filters and routing rules read from a
request: headers, query and form parameters, the client address behind
proxies, gzip acceptance and the effective request URI.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", getEnvOrDefault(envConfig, ""),
		"path to the YAML configuration file")
	pf.StringVar(&flags.logLevel, "log-level", getEnvOrDefault(envLogLevel, ""),
		"log level (debug, info, warn, error); overrides the config file")
	pf.StringVar(&flags.logFormat, "log-format", getEnvOrDefault(envLogFormat, ""),
		"log format (json, console); overrides the config file")

	root.AddCommand(newServeCmd(flags), newParseCmd())
	return root
}
