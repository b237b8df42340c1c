package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/panyam/ros/decl"
	"github.com/panyam/ros/loader"
	"github.com/panyam/ros/parser"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Prints the token stream of a script",
	Long: `Prints one token per line as "line:col KIND text".  If lexing fails the
tokens read so far are printed before the error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := loader.NewLoader(nil).ReadSource(args[0])
		if err != nil {
			return err
		}
		tokens, err := parser.Tokenize(source)
		printTokens(cmd.OutOrStdout(), tokens)
		return err
	},
}

func printTokens(w io.Writer, tokens []parser.Token) {
	for _, tok := range tokens {
		fmt.Fprintf(w, "%s\t%s\t%q\n", tok.Location().LineColStr(), tok.Kind, tok.Text)
	}
}

var astCmd = &cobra.Command{
	Use:   "ast <file>",
	Short: "Pretty prints the syntax tree of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := loader.NewLoader(nil).ParseFile(args[0])
		if err != nil {
			return err
		}
		return decl.FPrint(cmd.OutOrStdout(), prog)
	},
}

func init() {
	AddCommand(tokensCmd)
	AddCommand(astCmd)
}
