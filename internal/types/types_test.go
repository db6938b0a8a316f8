package types

import "testing"

func TestParseLevel(t *testing.T) {
	cases := map[string]EducationLevel{
		"preschool":  LevelPreschool,
		"Elementary": LevelElementary,
		"middle":     LevelMiddle,
		"HIGH":       LevelHigh,
		"college":    LevelUndergrad,
		"phd":        LevelMasters,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseLevel("kindergarten"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}

func TestLevelsOrdered(t *testing.T) {
	levels := Levels()
	if len(levels) != 6 {
		t.Fatalf("expected 6 levels, got %d", len(levels))
	}
	if levels[0] != LevelPreschool || levels[5] != LevelMasters {
		t.Errorf("levels out of order: %v", levels)
	}
}

func TestAnalysisResultValidate(t *testing.T) {
	full := AnalysisResult{
		SummaryTitle:          "t",
		Explanation:           "e",
		RealWorldAnalogy:      "a",
		ImageGenerationPrompt: "ip",
		AnimationPrompt:       "ap",
		KeyVocabulary:         []string{"w"},
		InteractiveQuestion:   "q",
	}
	if err := full.Validate(); err != nil {
		t.Fatalf("complete result failed validation: %v", err)
	}

	missing := full
	missing.AnimationPrompt = ""
	missing.KeyVocabulary = nil
	err := missing.Validate()
	if err == nil {
		t.Fatal("incomplete result passed validation")
	}
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := Session{
		ID:          "s1",
		ChatHistory: []ChatMessage{{Role: RoleUser, Text: "hi"}},
		Result:      AnalysisResult{KeyVocabulary: []string{"osmosis"}},
	}
	c := s.Clone()
	c.ChatHistory[0].Text = "changed"
	c.Result.KeyVocabulary[0] = "changed"

	if s.ChatHistory[0].Text != "hi" {
		t.Error("Clone shares chat history backing array")
	}
	if s.Result.KeyVocabulary[0] != "osmosis" {
		t.Error("Clone shares vocabulary backing array")
	}
}
