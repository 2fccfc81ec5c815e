package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func ChunksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunks",
		Short: "Manage stored chunks",
		Long:  "List and delete chunks in the vector index",
	}

	cmd.AddCommand(ChunksListCmd())
	cmd.AddCommand(ChunksDeleteCmd())

	return cmd
}

func ChunksListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored chunks",
		RunE:  runChunksList,
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runChunksList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	s, err := buildStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	chunks, err := s.idx.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		items := make([]map[string]interface{}, len(chunks))
		for i, c := range chunks {
			items[i] = map[string]interface{}{
				"name":       c.Filename,
				"tokens":     s.tok.Count(c.Text),
				"dimensions": len(c.Embedding),
			}
		}
		out, _ := json.MarshalIndent(items, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if len(chunks) == 0 {
		fmt.Println("No chunks stored")
		return nil
	}
	for _, c := range chunks {
		fmt.Printf("%s\t%d tokens\n", c.Filename, s.tok.Count(c.Text))
	}
	return nil
}

func ChunksDeleteCmd() *cobra.Command {
	var prefix bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a chunk by name",
		Long:  "Delete one chunk, or with --prefix every chunk whose name starts with the argument",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunksDelete(args[0], prefix)
		},
	}

	cmd.Flags().BoolVar(&prefix, "prefix", false, "Delete all chunks with this name prefix")

	return cmd
}

func runChunksDelete(name string, prefix bool) error {
	ctx := context.Background()

	s, err := buildStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if prefix {
		removed, err := s.idx.DeleteByPrefix(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		fmt.Printf("Deleted %d chunks\n", removed)
		return nil
	}

	if err := s.idx.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete chunk: %w", err)
	}
	fmt.Printf("Deleted %s\n", name)
	return nil
}
