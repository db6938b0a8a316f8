package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"conceptlens/internal/auth"
	"conceptlens/internal/types"
)

var (
	askLevel string
	askImage string
)

// askCmd runs a single analysis and prints the result
var askCmd = &cobra.Command{
	Use:   "ask [topic]",
	Short: "Explain a concept once and print the result",
	Long: `Runs one analysis outside the interactive interface and renders the
structured explanation to the terminal.

Examples:
  lens ask "Why is the sky blue?"
  lens ask --level preschool "black holes"
  lens ask --image diagram.png "what is this circuit doing?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, auth.NewStdinPrompter())
	if err != nil {
		return err
	}

	if askLevel != "" {
		level, err := types.ParseLevel(askLevel)
		if err != nil {
			return err
		}
		a.orch.SetLevel(level)
	}

	input := types.TopicInput{Text: strings.Join(args, " ")}
	if askImage != "" {
		data, err := os.ReadFile(askImage)
		if err != nil {
			return fmt.Errorf("failed to read image: %w", err)
		}
		input.ImageData = data
		input.ImageMIME = http.DetectContentType(data)
	}

	fmt.Fprintf(os.Stderr, "Analyzing at level: %s\n", a.orch.Level())
	if err := a.orch.Analyze(ctx, input); err != nil {
		return err
	}

	state := a.orch.Snapshot()
	if state.Err != "" {
		return fmt.Errorf("%s", state.Err)
	}
	sess, ok := state.CurrentSession()
	if !ok {
		return fmt.Errorf("analysis produced no session")
	}

	out, err := renderAnalysis(sess.Result)
	if err != nil {
		return err
	}
	fmt.Print(out)

	// The illustration generates in the background; a one-shot run does not
	// need it, but waiting keeps the log trail complete.
	a.orch.Wait()
	return nil
}

// renderAnalysis lays the structured result out as terminal markdown.
func renderAnalysis(result types.AnalysisResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", result.SummaryTitle)
	b.WriteString(result.Explanation)
	b.WriteString("\n\n## Real-World Analogy\n\n")
	b.WriteString(result.RealWorldAnalogy)
	if len(result.KeyVocabulary) > 0 {
		b.WriteString("\n\n## Key Vocabulary\n\n")
		for _, word := range result.KeyVocabulary {
			fmt.Fprintf(&b, "- %s\n", word)
		}
	}
	b.WriteString("\n## Check Your Understanding\n\n")
	fmt.Fprintf(&b, "> %s\n", result.InteractiveQuestion)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return b.String(), nil
	}
	out, err := renderer.Render(b.String())
	if err != nil {
		return b.String(), nil
	}
	return out, nil
}
