// Package types defines the shared domain types for ConceptLens:
// education levels, analysis results, chat messages, sessions, and the
// top-level application state. Everything here is plain data; behavior
// lives in the store and orchestrator packages.
package types

import (
	"fmt"
	"strings"
	"time"
)

// EducationLevel is one of six fixed tiers controlling tone, vocabulary,
// analogies, and visual style of generated content.
type EducationLevel string

const (
	LevelPreschool  EducationLevel = "Preschool (Ages 3-5)"
	LevelElementary EducationLevel = "Elementary School (Ages 6-11)"
	LevelMiddle     EducationLevel = "Middle School (Ages 12-14)"
	LevelHigh       EducationLevel = "High School (Ages 15-18)"
	LevelUndergrad  EducationLevel = "Undergraduate"
	LevelMasters    EducationLevel = "Masters/Expert"
)

// Levels returns all education levels in ascending order.
func Levels() []EducationLevel {
	return []EducationLevel{
		LevelPreschool,
		LevelElementary,
		LevelMiddle,
		LevelHigh,
		LevelUndergrad,
		LevelMasters,
	}
}

// ParseLevel resolves a short CLI-friendly name ("high", "masters", ...)
// to its EducationLevel.
func ParseLevel(s string) (EducationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "preschool", "pre-school":
		return LevelPreschool, nil
	case "elementary":
		return LevelElementary, nil
	case "middle":
		return LevelMiddle, nil
	case "high", "highschool", "high-school":
		return LevelHigh, nil
	case "undergrad", "undergraduate", "college":
		return LevelUndergrad, nil
	case "masters", "expert", "phd":
		return LevelMasters, nil
	}
	return "", fmt.Errorf("unknown education level %q (valid: preschool, elementary, middle, high, undergrad, masters)", s)
}

// AnalysisResult is the structured output of one analyze call. It is
// immutable once attached to a session; a level change replaces the whole
// value, never individual fields.
type AnalysisResult struct {
	SummaryTitle          string   `json:"summary_title"`
	Explanation           string   `json:"explanation"`
	RealWorldAnalogy      string   `json:"real_world_analogy"`
	ImageGenerationPrompt string   `json:"image_generation_prompt"`
	AnimationPrompt       string   `json:"animation_prompt"`
	KeyVocabulary         []string `json:"key_vocabulary"`
	InteractiveQuestion   string   `json:"interactive_question"`
}

// Validate checks that every required field of the structured response is
// present. A payload failing this is rejected whole; there is no partial
// acceptance.
func (r *AnalysisResult) Validate() error {
	missing := []string{}
	if r.SummaryTitle == "" {
		missing = append(missing, "summary_title")
	}
	if r.Explanation == "" {
		missing = append(missing, "explanation")
	}
	if r.RealWorldAnalogy == "" {
		missing = append(missing, "real_world_analogy")
	}
	if r.ImageGenerationPrompt == "" {
		missing = append(missing, "image_generation_prompt")
	}
	if r.AnimationPrompt == "" {
		missing = append(missing, "animation_prompt")
	}
	if len(r.KeyVocabulary) == 0 {
		missing = append(missing, "key_vocabulary")
	}
	if r.InteractiveQuestion == "" {
		missing = append(missing, "interactive_question")
	}
	if len(missing) > 0 {
		return fmt.Errorf("analysis result missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// clone returns a deep copy (the vocabulary slice is the only reference).
func (r AnalysisResult) clone() AnalysisResult {
	out := r
	out.KeyVocabulary = append([]string(nil), r.KeyVocabulary...)
	return out
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// MediaKind identifies the kind of generated media attached to a message.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// ChatMessage is one turn in a session's transcript. User messages are
// created complete and never change. Model messages may be amended at most
// once more, when asynchronous media generation for that turn resolves.
type ChatMessage struct {
	Role              Role
	Text              string
	MediaURL          string
	MediaKind         MediaKind
	IsGeneratingMedia bool
}

// TopicInput is the raw user input a session was analyzed from.
type TopicInput struct {
	Text      string
	ImageData []byte
	ImageMIME string
}

// HasImage reports whether the input carries inline image bytes.
func (in TopicInput) HasImage() bool {
	return len(in.ImageData) > 0
}

// Session is one complete exploration: an input, its analysis at a given
// level, its generated media, and its chat thread. Sessions are owned
// exclusively by the store; callers only ever see copies.
type Session struct {
	ID                string
	CreatedAt         time.Time
	Level             EducationLevel
	Input             TopicInput
	Result            AnalysisResult
	ChatHistory       []ChatMessage
	GeneratedImageURL string
	GeneratedVideoURL string

	// ResultRev increments each time Result is replaced. Late-arriving
	// media writes carry the revision they were generated for and are
	// dropped when it no longer matches.
	ResultRev int
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	out.Result = s.Result.clone()
	out.ChatHistory = append([]ChatMessage(nil), s.ChatHistory...)
	return out
}

// AppState is the full UI-facing state for one client run: the session
// collection, the current selection, the level and input buffer for new
// analyses, the four independent in-flight flags, and the single
// current-error slot. It is produced as a snapshot by the orchestrator;
// mutating a snapshot has no effect on the live state.
type AppState struct {
	Sessions         []Session
	CurrentSessionID string

	Level EducationLevel
	Input TopicInput

	IsAnalyzing       bool
	IsGeneratingImage bool
	IsGeneratingVideo bool
	IsChatting        bool

	Err string
}

// CurrentSession returns the selected session, if any.
func (st AppState) CurrentSession() (Session, bool) {
	for _, s := range st.Sessions {
		if s.ID == st.CurrentSessionID {
			return s, true
		}
	}
	return Session{}, false
}
