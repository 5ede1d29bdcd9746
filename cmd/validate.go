package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/smazurov/ledmanager/internal/ledconfig"
	"github.com/spf13/cobra"
)

// CreateValidateCmd creates the validate command.
func CreateValidateCmd() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate an LED group configuration",
		Long: `Loads an LED group configuration and checks it the same way the daemon does. ` +
			`Without a file argument the configuration is located like at daemon startup.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			flags.initLogging()
			if err := runValidate(cmd.Context(), cmd.OutOrStdout(), &flags, pathArg(args)); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid (%s): %v\n", ledconfig.Kind(err), err)
				os.Exit(1)
			}
		},
	}
	flags.bind(cmd)
	return cmd
}

func runValidate(ctx context.Context, w io.Writer, flags *loadFlags, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	resolved, groups, err := flags.load(ctx, path)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s: valid, %d groups, %d LEDs\n", resolved, len(groups), len(groups.LEDs()))
	return err
}
