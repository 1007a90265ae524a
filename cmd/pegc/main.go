// Command pegc compiles a PEG grammar file into a standalone Go parser.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/b4fun/pegc"
)

var (
	flagOutput  string
	flagPackage string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pegc <grammar-file>",
		Short:         "Compile a PEG grammar into a Go parser",
		Args:          cobra.ExactArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", `output file, "-" for stdout (default: grammar file with .go appended)`)
	cmd.Flags().StringVarP(&flagPackage, "package", "p", "parser", "package name of the generated parser")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	grammarPath := args[0]

	grammarText, err := os.ReadFile(grammarPath)
	if err != nil {
		return fmt.Errorf("read grammar: %w", err)
	}

	source, err := pegc.CompileToSource(string(grammarText), pegc.WithPackageName(flagPackage))
	if err != nil {
		var syntaxErr *pegc.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("%s:%d:%d: %s", grammarPath, syntaxErr.Line, syntaxErr.Column, syntaxErr.Message)
		}
		return err
	}

	output := flagOutput
	if output == "-" {
		fmt.Fprint(cmd.OutOrStdout(), source)
		return nil
	}
	if output == "" {
		output = grammarPath + ".go"
	}

	return os.WriteFile(output, []byte(source), 0o644)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pegc:", err)
		os.Exit(1)
	}
}
