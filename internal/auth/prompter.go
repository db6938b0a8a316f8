package auth

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// StdinPrompter reads an API key from an interactive terminal. Used by the
// one-shot commands where blocking on stdin is fine.
type StdinPrompter struct {
	In      io.Reader
	Out     io.Writer
	Message string
}

// NewStdinPrompter creates a prompter bound to the process terminal with the
// credential rejection message shown before the prompt.
func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{
		In:      os.Stdin,
		Out:     os.Stderr,
		Message: "The current API key was rejected. Veo video generation requires a key with billing enabled.\n",
	}
}

func (p *StdinPrompter) PromptKey(ctx context.Context) (string, error) {
	fmt.Fprint(p.Out, p.Message+"Enter a Gemini API key: ")

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		reader := bufio.NewReader(p.In)
		line, err := reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil && strings.TrimSpace(r.line) == "" {
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	}
}

// StoredPrompter resolves to a previously persisted key without user
// interaction. The TUI uses it: the event loop cannot block on stdin, so
// the retry can only succeed if `lens auth set-key` ran before.
type StoredPrompter struct {
	Path string
}

func (p StoredPrompter) PromptKey(ctx context.Context) (string, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return "", fmt.Errorf("no stored API key (run `lens auth set-key` first): %w", err)
	}
	var sk storedKey
	if err := json.Unmarshal(data, &sk); err != nil || sk.APIKey == "" {
		return "", fmt.Errorf("stored API key unreadable (run `lens auth set-key` again)")
	}
	return sk.APIKey, nil
}
