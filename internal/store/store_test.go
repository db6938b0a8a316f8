package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptlens/internal/types"
)

func sampleResult(title string) types.AnalysisResult {
	return types.AnalysisResult{
		SummaryTitle:          title,
		Explanation:           "explanation",
		RealWorldAnalogy:      "analogy",
		ImageGenerationPrompt: "image prompt",
		AnimationPrompt:       "animation prompt",
		KeyVocabulary:         []string{"word"},
		InteractiveQuestion:   "question",
	}
}

func TestCreateSelectsNewSession(t *testing.T) {
	s := New()

	first := s.Create(types.TopicInput{Text: "gravity"}, types.LevelHigh, sampleResult("Gravity"))
	assert.Equal(t, first.ID, s.CurrentID())

	second := s.Create(types.TopicInput{Text: "osmosis"}, types.LevelHigh, sampleResult("Osmosis"))
	assert.Equal(t, second.ID, s.CurrentID())
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, s.Len())
}

func TestListOrdering(t *testing.T) {
	s := New()
	a := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))
	b := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("B"))
	c := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("C"))

	ids := func(sessions []types.Session) []string {
		out := make([]string, len(sessions))
		for i, sess := range sessions {
			out[i] = sess.ID
		}
		return out
	}

	if diff := cmp.Diff([]string{a.ID, b.ID, c.ID}, ids(s.List())); diff != "" {
		t.Errorf("List order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{c.ID, b.ID, a.ID}, ids(s.ListNewestFirst())); diff != "" {
		t.Errorf("ListNewestFirst order mismatch (-want +got):\n%s", diff)
	}
}

func TestListReturnsCopies(t *testing.T) {
	s := New()
	s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))

	list := s.List()
	list[0].Result.SummaryTitle = "mutated"
	list[0].Result.KeyVocabulary[0] = "mutated"

	fresh, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "A", fresh.Result.SummaryTitle)
	assert.Equal(t, "word", fresh.Result.KeyVocabulary[0])
}

func TestDeleteClearsSelection(t *testing.T) {
	s := New()
	a := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))
	b := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("B"))

	// Deleting a non-current session keeps the selection.
	require.True(t, s.Delete(a.ID))
	assert.Equal(t, b.ID, s.CurrentID())

	// Deleting the current session clears it; nothing is auto-selected.
	require.True(t, s.Delete(b.ID))
	assert.Empty(t, s.CurrentID())
	_, ok := s.Current()
	assert.False(t, ok)

	assert.False(t, s.Delete("missing"))
}

func TestSelect(t *testing.T) {
	s := New()
	a := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))
	s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("B"))

	require.True(t, s.Select(a.ID))
	assert.Equal(t, a.ID, s.CurrentID())

	// Unknown ID leaves the selection unchanged.
	assert.False(t, s.Select("missing"))
	assert.Equal(t, a.ID, s.CurrentID())
}

func TestResultPatchResetsDerivedState(t *testing.T) {
	s := New()
	sess := s.Create(types.TopicInput{Text: "gravity"}, types.LevelHigh, sampleResult("Gravity"))

	img := "data:image/png;base64,aaa"
	require.True(t, s.Update(sess.ID, Patch{ImageURL: &img}))
	_, ok := s.AppendMessage(sess.ID, types.ChatMessage{Role: types.RoleUser, Text: "why?"})
	require.True(t, ok)

	require.True(t, s.Update(sess.ID, Patch{Result: &ResultPatch{
		Level:  types.LevelPreschool,
		Result: sampleResult("Gravity for Little Ones"),
	}}))

	got, ok := s.Get(sess.ID)
	require.True(t, ok)
	assert.Equal(t, types.LevelPreschool, got.Level)
	assert.Equal(t, "Gravity for Little Ones", got.Result.SummaryTitle)
	assert.Empty(t, got.GeneratedImageURL, "media must reset with the analysis")
	assert.Empty(t, got.ChatHistory, "chat must reset with the analysis")
	assert.Equal(t, 1, got.ResultRev)

	// Input and identity survive the level change.
	assert.Equal(t, "gravity", got.Input.Text)
	assert.Equal(t, sess.ID, got.ID)
}

func TestStaleMediaWriteDropped(t *testing.T) {
	s := New()
	sess := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))

	// An image job captured rev 0, then a level change bumped the rev.
	staleRev := sess.ResultRev
	require.True(t, s.Update(sess.ID, Patch{Result: &ResultPatch{
		Level:  types.LevelMiddle,
		Result: sampleResult("A again"),
	}}))

	img := "data:image/png;base64,stale"
	assert.False(t, s.Update(sess.ID, Patch{ImageURL: &img, RequireRev: &staleRev}))

	got, _ := s.Get(sess.ID)
	assert.Empty(t, got.GeneratedImageURL)

	// A write carrying the current rev lands.
	currentRev := got.ResultRev
	fresh := "data:image/png;base64,fresh"
	assert.True(t, s.Update(sess.ID, Patch{ImageURL: &fresh, RequireRev: &currentRev}))
	got, _ = s.Get(sess.ID)
	assert.Equal(t, fresh, got.GeneratedImageURL)
}

func TestUpdateMissingSession(t *testing.T) {
	s := New()
	img := "x"
	assert.False(t, s.Update("missing", Patch{ImageURL: &img}))
}

func TestAppendAndAmendMessage(t *testing.T) {
	s := New()
	sess := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))

	_, ok := s.AppendMessage(sess.ID, types.ChatMessage{Role: types.RoleUser, Text: "show me"})
	require.True(t, ok)
	idx, ok := s.AppendMessage(sess.ID, types.ChatMessage{
		Role:              types.RoleModel,
		Text:              "Here it comes.",
		MediaKind:         types.MediaImage,
		IsGeneratingMedia: true,
	})
	require.True(t, ok)
	assert.True(t, s.HasPendingMedia(sess.ID))

	require.True(t, s.AmendMessage(sess.ID, idx, MessageAmend{
		MediaURL:        "data:image/png;base64,bbb",
		ClearGenerating: true,
	}))

	got, _ := s.Get(sess.ID)
	assert.Equal(t, "data:image/png;base64,bbb", got.ChatHistory[idx].MediaURL)
	assert.False(t, got.ChatHistory[idx].IsGeneratingMedia)
	assert.False(t, s.HasPendingMedia(sess.ID))
}

func TestAmendFailureAppendsApology(t *testing.T) {
	s := New()
	sess := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))
	idx, _ := s.AppendMessage(sess.ID, types.ChatMessage{
		Role: types.RoleModel, Text: "Generating...", IsGeneratingMedia: true,
	})

	require.True(t, s.AmendMessage(sess.ID, idx, MessageAmend{
		AppendText:      "\n\n(Sorry, I couldn't make it.)",
		ClearGenerating: true,
	}))

	got, _ := s.Get(sess.ID)
	assert.Equal(t, "Generating...\n\n(Sorry, I couldn't make it.)", got.ChatHistory[idx].Text)
	assert.False(t, got.ChatHistory[idx].IsGeneratingMedia)
}

func TestAmendAfterResetIsNoOp(t *testing.T) {
	s := New()
	sess := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))
	idx, _ := s.AppendMessage(sess.ID, types.ChatMessage{
		Role: types.RoleModel, IsGeneratingMedia: true,
	})

	// Level change resets the transcript while media was in flight.
	require.True(t, s.Update(sess.ID, Patch{Result: &ResultPatch{
		Level:  types.LevelMasters,
		Result: sampleResult("A, rigorously"),
	}}))

	assert.False(t, s.AmendMessage(sess.ID, idx, MessageAmend{MediaURL: "late", ClearGenerating: true}))

	got, _ := s.Get(sess.ID)
	assert.Empty(t, got.ChatHistory)
}

func TestAmendAfterDeleteIsNoOp(t *testing.T) {
	s := New()
	sess := s.Create(types.TopicInput{}, types.LevelHigh, sampleResult("A"))
	idx, _ := s.AppendMessage(sess.ID, types.ChatMessage{
		Role: types.RoleModel, IsGeneratingMedia: true,
	})
	require.True(t, s.Delete(sess.ID))

	assert.False(t, s.AmendMessage(sess.ID, idx, MessageAmend{MediaURL: "late"}))
	assert.False(t, s.HasPendingMedia(sess.ID))
}
