package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a text file into the corpus",
		Long:  "Normalize, chunk and embed a text file, then store the chunks in the vector index",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("name", "n", "", "Document name (defaults to the file's base name)")
	cmd.Flags().Bool("replace", false, "Remove previously stored chunks of this document first")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = filepath.Base(args[0])
	}

	s, err := buildStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireOpenAI(); err != nil {
		return err
	}

	svc := s.ingestService()

	replace, _ := cmd.Flags().GetBool("replace")

	var stored int
	var failed []string
	if replace {
		r, err := svc.ReplaceDocument(ctx, string(data), name)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", name, err)
		}
		stored, failed = r.Stored, r.Failed
	} else {
		r, err := svc.Ingest(ctx, string(data), name)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", name, err)
		}
		stored, failed = r.Stored, r.Failed
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		if failed == nil {
			failed = []string{}
		}
		out, _ := json.MarshalIndent(map[string]interface{}{
			"name":   name,
			"stored": stored,
			"failed": failed,
		}, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Ingested %s: %d chunks stored\n", name, stored)
	for _, f := range failed {
		fmt.Printf("  failed: %s\n", f)
	}
	return nil
}
