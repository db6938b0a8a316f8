package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptlens/internal/types"
)

func TestParseImageDirective(t *testing.T) {
	reply := "Sure, here you go!\n[GENERATE_IMAGE: a watercolor diagram of the water cycle]"

	text, intent := Parse(reply)
	require.NotNil(t, intent)
	assert.Equal(t, types.MediaImage, intent.Kind)
	assert.Equal(t, "a watercolor diagram of the water cycle", intent.Prompt)
	assert.Equal(t, "Sure, here you go!", text)
}

func TestParseVideoDirective(t *testing.T) {
	reply := "Watch this:\n[GENERATE_VIDEO: a 5-second animation of cell division]\nEnjoy!"

	text, intent := Parse(reply)
	require.NotNil(t, intent)
	assert.Equal(t, types.MediaVideo, intent.Kind)
	assert.Equal(t, "a 5-second animation of cell division", intent.Prompt)
	assert.Equal(t, "Watch this:\n\nEnjoy!", text)
}

func TestParseNoDirective(t *testing.T) {
	reply := "Photosynthesis turns sunlight into sugar."

	text, intent := Parse(reply)
	assert.Nil(t, intent)
	assert.Equal(t, reply, text)
}

func TestParseImageWinsOverVideo(t *testing.T) {
	reply := "[GENERATE_VIDEO: vid prompt] and [GENERATE_IMAGE: img prompt]"

	text, intent := Parse(reply)
	require.NotNil(t, intent)
	assert.Equal(t, types.MediaImage, intent.Kind)
	assert.Equal(t, "img prompt", intent.Prompt)
	// The losing directive stays in the text untouched.
	assert.Contains(t, text, "[GENERATE_VIDEO: vid prompt]")
	assert.NotContains(t, text, "GENERATE_IMAGE")
}

func TestParseOnlyFirstDirectiveHonored(t *testing.T) {
	reply := "[GENERATE_IMAGE: first] then [GENERATE_IMAGE: second]"

	text, intent := Parse(reply)
	require.NotNil(t, intent)
	assert.Equal(t, "first", intent.Prompt)
	assert.Contains(t, text, "[GENERATE_IMAGE: second]")
}

func TestParseWhitespaceHandling(t *testing.T) {
	t.Run("padding inside marker", func(t *testing.T) {
		_, intent := Parse("[GENERATE_IMAGE:    padded prompt ]")
		require.NotNil(t, intent)
		assert.Equal(t, "padded prompt", intent.Prompt)
	})

	t.Run("directive-only reply yields empty text", func(t *testing.T) {
		text, intent := Parse("[GENERATE_VIDEO: solo]")
		require.NotNil(t, intent)
		assert.Empty(t, text)
	})

	t.Run("empty prompt still counts as a directive", func(t *testing.T) {
		_, intent := Parse("[GENERATE_IMAGE: ]")
		require.NotNil(t, intent)
		assert.Empty(t, intent.Prompt)
	})
}
