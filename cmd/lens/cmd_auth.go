package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"conceptlens/internal/auth"
)

// authCmd manages the stored Gemini API key
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Gemini API key",
	Long: `Manage the persisted Gemini API key selection.

The interactive interface cannot prompt for a key mid-session, so a key
stored here serves as the fallback when the ambient credential (environment
or config file) is rejected. Veo video generation in particular requires a
key with billing enabled.`,
}

// authSetKeyCmd prompts for and persists a key
var authSetKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Prompt for a Gemini API key and store it",
	RunE:  runAuthSetKey,
}

func runAuthSetKey(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	path := auth.DefaultPath()
	prompter := &auth.StdinPrompter{In: os.Stdin, Out: os.Stderr}
	ks := auth.NewKeyStore(path, prompter)
	if _, err := ks.SelectKey(ctx); err != nil {
		return fmt.Errorf("key selection failed: %w", err)
	}

	fmt.Printf("API key stored at %s\n", path)
	return nil
}
