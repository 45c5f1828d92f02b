package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/Chative-Travel-Intake/pkg/config"
	logx "github.com/tanpawarit/Chative-Travel-Intake/pkg/logger"
	_ "github.com/tanpawarit/Chative-Travel-Intake/pkg/logger/autoload"
)

var rootCmd = &cobra.Command{
	Use:   "travel-intake",
	Short: "Conversational travel request intake",
	Long:  `Collects a travel request over chat, searches for the best package and emails it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env")
		configx.SetEnvFile(envFile)

		logCfg, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*logCfg)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env", "", "Path to a .env file (defaults to ./.env when present)")
	rootCmd.AddCommand(serveCmd, chatCmd, gmailAuthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
