package main

import (
	"encoding/json"
	"fmt"

	"askfolio/internal/app"
	"askfolio/internal/assistant"

	"github.com/spf13/cobra"
)

var (
	askTopic   string
	askSession string
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the portfolio assistant a question",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askTopic, "topic", "t", "", "topic hint: driving, web, about or all")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "conversation id for follow-up questions")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	resp, err := a.Assistant.Ask(cmd.Context(), assistant.Request{Question: args[0], TopicHint: askTopic, SessionID: askSession})
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(resp.Answer)
	if sources := resp.SourceStrings(); len(sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range sources {
			cmd.Printf("  - %s\n", s)
		}
	}
	cmd.Println()
	cmd.Printf("[%s | %s | confidence %.2f]\n", resp.Provider, resp.Topic, resp.Confidence)
	return nil
}
