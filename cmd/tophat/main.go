package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var flagVerbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "tophat",
		Short: "Bank statement import pipeline",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newPreviewCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
