package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"conceptlens/cmd/lens/chat"
	"conceptlens/internal/auth"
	"conceptlens/internal/config"
	"conceptlens/internal/gateway"
	"conceptlens/internal/logging"
	"conceptlens/internal/orchestrator"
	"conceptlens/internal/store"
)

var (
	// Global flags
	verbose    bool
	apiKeyFlag string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lens",
	Short: "ConceptLens - adaptive concept explainer powered by Gemini",
	Long: `ConceptLens explains any concept at any education level, from
preschool stories to expert briefings.

Each analysis produces a structured explanation with a real-world analogy,
key vocabulary, and a comprehension question, plus a generated illustration.
Follow-up chat can attach images and Veo animations on request.

Run without arguments to start the interactive interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip logger init for interactive mode (it has its own UI)
		if cmd.Use == "lens" && cmd.CalledAs() == "lens" {
			return nil
		}

		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: launch the interactive interface
		return runInteractive()
	},
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ConceptLens version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.DefaultPath())
		if err != nil {
			cfg = config.DefaultConfig()
		}
		fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")

	askCmd.Flags().StringVarP(&askLevel, "level", "l", "", "Education level (preschool, elementary, middle, high, undergraduate, masters)")
	askCmd.Flags().StringVar(&askImage, "image", "", "Attach an image file to the topic")

	authCmd.AddCommand(authSetKeyCmd)

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Load .env before anything reads the environment.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles the wired backend for a single process run.
type app struct {
	cfg      *config.Config
	keystore *auth.KeyStore
	orch     *orchestrator.Orchestrator
}

// buildApp wires config, logging, key storage, the Gemini gateway, the
// session store, and the orchestrator. prompter decides how a rejected
// credential gets replaced: stdin for one-shot commands, the persisted
// selection for the TUI.
func buildApp(ctx context.Context, prompter auth.Prompter) (*app, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, err
	}
	if apiKeyFlag != "" {
		cfg.Gemini.APIKey = apiKeyFlag
	}

	if cwd, err := os.Getwd(); err == nil {
		if err := logging.Initialize(cwd); err != nil {
			fmt.Fprintf(os.Stderr, "warning: debug logging disabled: %v\n", err)
		}
	}

	keystore := auth.NewKeyStore(auth.DefaultPath(), prompter)
	if cfg.Gemini.APIKey == "" {
		// Fall back to a previously selected key.
		cfg.Gemini.APIKey = keystore.Key()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gw, err := gateway.New(ctx, gateway.Config{
		APIKey:        cfg.Gemini.APIKey,
		AnalysisModel: cfg.Gemini.AnalysisModel,
		ImageModel:    cfg.Gemini.ImageModel,
		VideoModel:    cfg.Gemini.VideoModel,
		Timeout:       cfg.GetRequestTimeout(),
		PollInterval:  cfg.GetPollInterval(),
	})
	if err != nil {
		return nil, err
	}

	logging.Boot("backend wired: analysis=%s image=%s video=%s",
		cfg.Gemini.AnalysisModel, cfg.Gemini.ImageModel, cfg.Gemini.VideoModel)

	return &app{
		cfg:      cfg,
		keystore: keystore,
		orch:     orchestrator.New(gw, keystore, store.New()),
	}, nil
}

// runInteractive starts the full-screen interface.
func runInteractive() error {
	defer logging.CloseAll()

	a, err := buildApp(context.Background(), auth.StoredPrompter{Path: auth.DefaultPath()})
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		chat.New(a.orch),
		tea.WithAltScreen(),
	)

	// Background media goroutines finish after their triggering command
	// returns; push every transition into the event loop.
	a.orch.SetNotify(func() {
		p.Send(chat.RefreshMsg{})
	})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interface error: %w", err)
	}

	// Let in-flight media generation settle before the process exits.
	a.orch.Wait()
	return nil
}
