package admin

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/patchline/corpusqa/internal/token"
	"github.com/spf13/cobra"
)

func TokensCmd() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "tokens [text...]",
		Short: "Count tokens in a text",
		Long:  "Count tokens under the pipeline's encoding, from arguments, a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(args, fromFile)
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read text from a file ('-' for stdin)")

	return cmd
}

func runTokens(args []string, fromFile string) error {
	var text string
	switch {
	case fromFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	case fromFile != "":
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", fromFile, err)
		}
		text = string(data)
	default:
		text = strings.Join(args, " ")
	}

	tok, err := token.New()
	if err != nil {
		return fmt.Errorf("failed to initialize tokenizer: %w", err)
	}

	fmt.Println(tok.Count(text))
	return nil
}
