package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/JonMunkholm/userimport/internal/rowsource"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var delimiter string

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check the first rows of a file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, err := core.ParseDelimiter(delimiter)
			if err != nil {
				return withCode(exitUsage, err)
			}
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			result, err := core.Preflight(cmd.Context(), rowsource.NewAuto(filepath.Dir(abs)), filepath.Base(abs), delim)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.Valid() {
				fmt.Fprintf(out, "%s: OK (%d rows checked)\n", args[0], result.RowsChecked)
				return nil
			}
			fmt.Fprintf(out, "%s: %d problem(s)\n", args[0], len(result.Problems))
			for _, p := range result.Problems {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return &exitError{code: exitFailure, err: errors.New("validation failed"), silent: true}
		},
	}
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", "comma", "Field delimiter: comma, semicolon, tab or pipe")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var (
		delimiter string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an example import file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			delim, err := core.ParseDelimiter(delimiter)
			if err != nil {
				return withCode(exitUsage, err)
			}
			if output == "" || output == "-" {
				return core.WriteTemplate(cmd.OutOrStdout(), delim)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := core.WriteTemplate(f, delim); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&delimiter, "delimiter", "d", "comma", "Field delimiter: comma, semicolon, tab or pipe")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}
