package commands

import (
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/gopheryan/stimulus/stimulus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

// Set at build time with -ldflags "-X .../commands.version=..."
var version = "dev"

// Swapped out by tests so they don't take six seconds
var sleep = time.Sleep

var rootCmd = &cobra.Command{
	Use:           "stimulus",
	Short:         "Write a slow, individually flushed stream of dots to stdout",
	Version:       version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return stimulus.NewEmitter(cmd.OutOrStdout(), stimulus.WithSleep(sleep)).Run()
	},
}

// we have log.Fatal, but let's be consistent with slog
func slogFatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	// Nobody is left to read anything we'd say about a broken pipe
	if errors.Is(err, unix.EPIPE) {
		os.Exit(1)
	}
	slogFatal("Emission failed", "error", err)
}
