package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/Chative-Travel-Intake/api"
	configx "github.com/tanpawarit/Chative-Travel-Intake/pkg/config"
)

const demoSession = "demo_user"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the travel assistant in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCfg, err := configx.New[AppConfig]("APP")
		if err != nil {
			return err
		}
		a, err := buildApp(cmd.Context(), *appCfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.service)
	},
}

func chatLoop(ctx context.Context, in io.Reader, out io.Writer, svc api.ChatService) error {
	fmt.Fprintln(out, "🌍 Travel assistant")
	fmt.Fprintln(out, "Tell me about your trip. Type 'clear' to start over, 'quit' to leave.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "quit", "exit", "bye":
			fmt.Fprintln(out, "Assistant: Safe travels! 👋")
			return nil
		case "clear":
			if err := svc.ClearSession(ctx, demoSession); err != nil {
				return err
			}
			fmt.Fprintln(out, "Assistant: Starting over. Where would you like to go?")
			continue
		}

		resp, err := svc.HandleMessage(ctx, demoSession, text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Assistant: %s\n", resp.Message)
	}
}
