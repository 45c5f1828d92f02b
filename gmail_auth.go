package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Chative-Travel-Intake/pkg/config"
	gmailx "github.com/tanpawarit/Chative-Travel-Intake/pkg/gmail"
)

var gmailAuthCmd = &cobra.Command{
	Use:   "gmail-auth",
	Short: "Authorise the Gmail account used to send travel emails",
	Long: `Prints the Google consent URL, reads the authorisation code from stdin
and stores the token at GMAIL_TOKEN_FILE. Needs GMAIL_CREDENTIALS_FILE.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configx.New[gmailx.Config]("GMAIL")
		if err != nil {
			return err
		}
		return gmailAuth(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), *cfg)
	},
}

func gmailAuth(ctx context.Context, in io.Reader, out io.Writer, cfg gmailx.Config) error {
	authURL, err := gmailx.AuthCodeURL(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Open this URL, allow access and paste the code below:")
	fmt.Fprintln(out, authURL)
	fmt.Fprint(out, "\nCode: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return errors.New("no authorisation code entered")
	}
	if err := gmailx.SaveToken(ctx, cfg, scanner.Text()); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Gmail token saved to %s\n", cfg.TokenFile)
	return nil
}
