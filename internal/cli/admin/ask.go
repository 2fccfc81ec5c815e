package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/patchline/corpusqa/internal/service"
	"github.com/spf13/cobra"
)

func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the corpus",
		Long:  "Embed the question, retrieve the most similar chunks and ask the completion model",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	cmd.Flags().String("model", "", "Completion model override")
	cmd.Flags().Int("max-tokens", 0, "Maximum answer tokens")
	cmd.Flags().Float32("temperature", 0, "Sampling temperature")
	cmd.Flags().Bool("show-prompt", false, "Print the assembled prompt")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := strings.Join(args, " ")

	s, err := buildStack(ctx, true)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.requireOpenAI(); err != nil {
		return err
	}

	input := service.AnswerInput{Question: question}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		input.Model = model
	}
	if maxTokens, _ := cmd.Flags().GetInt("max-tokens"); maxTokens > 0 {
		input.MaxTokens = maxTokens
	}
	if cmd.Flags().Changed("temperature") {
		temperature, _ := cmd.Flags().GetFloat32("temperature")
		input.Temperature = &temperature
	}

	answer, err := s.answerService().Answer(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	outputFormat, _ := cmd.Flags().GetString("output")
	if outputFormat == "json" {
		sources := answer.Sources
		if sources == nil {
			sources = []string{}
		}
		out, _ := json.MarshalIndent(map[string]interface{}{
			"prompt":     answer.Prompt,
			"completion": answer.Completion,
			"sources":    sources,
		}, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if showPrompt, _ := cmd.Flags().GetBool("show-prompt"); showPrompt {
		fmt.Println(answer.Prompt)
		fmt.Println("---")
	}
	fmt.Println(strings.TrimSpace(answer.Completion))
	if len(answer.Sources) > 0 {
		fmt.Printf("Sources: %s\n", strings.Join(answer.Sources, ", "))
	}
	return nil
}
