package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/panyam/ros/loader"
)

var errValidationFailed = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <file...>",
	Short: "Lexes and parses script(s) without running them",
	Long: `The validate command parses one or more scripts to check for syntactic
correctness.  Nothing is executed, so runtime errors such as undefined names
are not reported.`,
	Args: cobra.MinimumNArgs(1), // Require at least one file path
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Validating files:")
		results, ok := loader.NewLoader(nil).ValidateFiles(args...)
		for _, res := range results {
			if res.OK() {
				color.New(color.FgGreen).Fprint(out, "  OK    ")
				fmt.Fprintln(out, res.Path)
			} else {
				color.New(color.FgRed).Fprint(out, "  FAIL  ")
				fmt.Fprintf(out, "%s\n        %v\n", res.Path, res.Err)
			}
		}
		if !ok {
			return errValidationFailed
		}
		return nil
	},
}

func init() {
	AddCommand(validateCmd)
}
