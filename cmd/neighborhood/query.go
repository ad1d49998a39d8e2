package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/neighborhood/internal/models"
)

var queryInteractive bool

var queryCmd = &cobra.Command{
	Use:     "query <project-id> [question]",
	Aliases: []string{"chat", "ask"},
	Short:   "Ask a project's chat agent a question",
	Long: `Answers a question from the project's indexed sources and prints the cited
sources. With --interactive, reads questions from stdin and keeps the
conversation history between turns.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVarP(&queryInteractive, "interactive", "i", false, "Read questions from stdin until EOF")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if !queryInteractive && len(args) < 2 {
		return fmt.Errorf("question required (or use --interactive)")
	}

	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	ctx := cmd.Context()
	agent, err := application.ProjectService.Agent(ctx, args[0])
	if err != nil {
		return err
	}

	if !queryInteractive {
		printResponse(cmd, agent.Chat(ctx, args[1], nil))
		return nil
	}

	var history []models.ChatTurn
	scanner := bufio.NewScanner(cmd.InOrStdin())
	cmd.Print("> ")
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			cmd.Print("> ")
			continue
		}

		response := agent.Chat(ctx, question, history)
		printResponse(cmd, response)

		now := time.Now()
		history = append(history,
			models.ChatTurn{Role: "user", Content: question, Timestamp: now},
			models.ChatTurn{Role: "assistant", Content: response.Answer, Sources: response.Sources, Timestamp: now},
		)
		cmd.Print("> ")
	}
	return scanner.Err()
}

func printResponse(cmd *cobra.Command, response *models.ChatResponse) {
	cmd.Println(response.Answer)
	if response.Error != "" {
		cmd.PrintErrf("error: %s (%s)\n", response.Error, response.ErrorDetail)
	}
	if len(response.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, source := range response.Sources {
		cmd.Printf("  [%d] %s (%s, %.2f)\n", i+1, source.Title, source.SourceType, source.RelevanceScore)
		if source.URL != "" {
			cmd.Printf("      %s\n", source.URL)
		}
	}
}
