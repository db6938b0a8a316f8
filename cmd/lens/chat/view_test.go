package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"conceptlens/internal/types"
)

func TestSessionMarkdown(t *testing.T) {
	sess := types.Session{
		Result: types.AnalysisResult{
			SummaryTitle:        "Gravity: The Invisible Pull",
			Explanation:         "Everything attracts everything else.",
			RealWorldAnalogy:    "Like a trampoline with a bowling ball.",
			KeyVocabulary:       []string{"mass", "force"},
			InteractiveQuestion: "Why do dropped things fall?",
		},
	}

	md := sessionMarkdown(sess)
	assert.True(t, strings.HasPrefix(md, "# Gravity: The Invisible Pull"))
	assert.Contains(t, md, "## Real-World Analogy")
	assert.Contains(t, md, "- mass\n- force")
	assert.Contains(t, md, "> Why do dropped things fall?")
}

func TestNextLevelCycles(t *testing.T) {
	assert.Equal(t, types.LevelElementary, nextLevel(types.LevelPreschool))
	assert.Equal(t, types.LevelPreschool, nextLevel(types.LevelMasters))
	assert.Equal(t, types.LevelPreschool, nextLevel("bogus"))
}

func TestDataURISize(t *testing.T) {
	assert.Equal(t, "3 B", dataURISize("data:image/png;base64,AAAA"))
	assert.Equal(t, "unknown size", dataURISize("not-a-data-uri"))

	big := "data:video/mp4;base64," + strings.Repeat("A", 2<<20)
	assert.Contains(t, dataURISize(big), "MB")
}
