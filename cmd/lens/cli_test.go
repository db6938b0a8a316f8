package main

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"conceptlens/internal/types"
)

func TestRenderAnalysis(t *testing.T) {
	logger = zap.NewNop()

	out, err := renderAnalysis(types.AnalysisResult{
		SummaryTitle:        "Photosynthesis",
		Explanation:         "Plants turn sunlight into sugar.",
		RealWorldAnalogy:    "A solar-powered kitchen.",
		KeyVocabulary:       []string{"chlorophyll", "glucose"},
		InteractiveQuestion: "What do plants eat?",
	})
	if err != nil {
		t.Fatalf("renderAnalysis failed: %v", err)
	}

	for _, want := range []string{"Photosynthesis", "solar-powered kitchen", "chlorophyll", "What do plants eat?"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered output missing %q", want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ask", "auth", "version"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}
