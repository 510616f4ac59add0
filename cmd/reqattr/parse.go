package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/greencloud/reqattr/internal/query"
)

// parseResult is what the parse command prints.
type parseResult struct {
	Params    map[string][]string `json:"params" yaml:"params"`
	First     map[string]string   `json:"first" yaml:"first"`
	Keys      []string            `json:"keys" yaml:"keys"`
	Fallbacks int                 `json:"fallbacks" yaml:"fallbacks"`
}

func newParseCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse [query-string]",
		Short: "Decode a query string or urlencoded body",
		Long: `Decode a query string or urlencoded body the way the resolvers do and
print the multi-map, the first value per key and the number of escapes that
could not be decoded. With no argument, or "-", the input is read from stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readParseInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return writeParseResult(cmd.OutOrStdout(), parseQuery(raw), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format (json, yaml)")
	return cmd
}

func readParseInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimPrefix(args[0], "?"), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimPrefix(strings.TrimSpace(string(data)), "?"), nil
}

func parseQuery(raw string) parseResult {
	values, fallbacks := query.ParseWithStats(raw)
	return parseResult{
		Params:    values.Map(),
		First:     values.Collapse(),
		Keys:      values.Keys(),
		Fallbacks: fallbacks,
	}
}

func writeParseResult(w io.Writer, result parseResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
