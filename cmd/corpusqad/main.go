package main

import (
	"fmt"
	"os"

	"github.com/patchline/corpusqa/internal/cli"
	"github.com/patchline/corpusqa/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corpusqad",
		Short: "Corpusqa daemon and CLI",
		Long:  "Corpusqa daemon for running the question-answering API server and managing the document corpus",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.AskCmd())
	rootCmd.AddCommand(admin.ChunksCmd())
	rootCmd.AddCommand(admin.TokensCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
