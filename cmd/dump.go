package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/ledmanager/internal/layout"
	"github.com/smazurov/ledmanager/internal/ledconfig"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type dumpGroup struct {
	Path    string             `json:"path" yaml:"path" toml:"path"`
	Members []layout.LedAction `json:"members" yaml:"members" toml:"members"`
}

type dumpDocument struct {
	Source string      `json:"source" yaml:"source" toml:"source"`
	Groups []dumpGroup `json:"groups" yaml:"groups" toml:"groups"`
}

// CreateDumpCmd creates the dump command.
func CreateDumpCmd() *cobra.Command {
	var flags loadFlags
	var format string

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Print the resolved LED group map",
		Long: `Loads an LED group configuration and prints every group with its members after defaults ` +
			`are applied and duplicates are dropped.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			flags.initLogging()
			if err := runDump(cmd.Context(), cmd.OutOrStdout(), &flags, pathArg(args), format); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "dump failed (%s): %v\n", ledconfig.Kind(err), err)
				os.Exit(1)
			}
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json, yaml, toml)")
	return cmd
}

func runDump(ctx context.Context, w io.Writer, flags *loadFlags, path, format string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	encode, err := encoderFor(format, w)
	if err != nil {
		return err
	}

	resolved, groups, err := flags.load(ctx, path)
	if err != nil {
		return err
	}

	doc := dumpDocument{Source: resolved, Groups: make([]dumpGroup, 0, len(groups))}
	for _, p := range groups.Paths() {
		doc.Groups = append(doc.Groups, dumpGroup{Path: p, Members: groups[p].Sorted()})
	}
	return encode(doc)
}

func encoderFor(format string, w io.Writer) (func(any) error, error) {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode, nil
	case "yaml":
		return func(v any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		}, nil
	case "toml":
		return toml.NewEncoder(w).Encode, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
