package gateway

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conceptlens/internal/types"
)

func TestBuildAnalysisPromptCarriesLevel(t *testing.T) {
	for _, level := range types.Levels() {
		prompt := buildAnalysisPrompt(level)
		assert.Contains(t, prompt, "CURRENT TARGET LEVEL: "+string(level))
		assert.Contains(t, prompt, "Omni-Tutor")
		assert.Contains(t, prompt, "animation_prompt")
	}
}

func TestBuildChatSystemInstruction(t *testing.T) {
	analysis := types.AnalysisResult{
		SummaryTitle:     "Photosynthesis: Nature's Kitchen",
		RealWorldAnalogy: "Like a solar-powered bakery",
	}
	sys := buildChatSystemInstruction(types.LevelMiddle, analysis)

	assert.Contains(t, sys, string(types.LevelMiddle))
	assert.Contains(t, sys, analysis.SummaryTitle)
	assert.Contains(t, sys, analysis.RealWorldAnalogy)

	// The directive markers are parsed verbatim from replies, so the
	// instruction must spell them exactly.
	assert.Contains(t, sys, "[GENERATE_IMAGE: <detailed prompt here>]")
	assert.Contains(t, sys, "[GENERATE_VIDEO: <detailed prompt here>]")
}

func TestAnalysisSchemaRequiresAllFields(t *testing.T) {
	schema := analysisSchema()
	require.NotNil(t, schema)
	require.Len(t, schema.Required, 7)

	for _, field := range schema.Required {
		_, ok := schema.Properties[field]
		assert.True(t, ok, "required field %q missing from properties", field)
	}
	assert.Len(t, schema.Properties, len(schema.Required))
}

func TestPersonaDefinesAllSixLevels(t *testing.T) {
	if !strings.Contains(omniTutorPersona, "Visual Style") {
		t.Fatal("persona missing visual style guidance")
	}
	for _, level := range types.Levels() {
		assert.Contains(t, omniTutorPersona, string(level))
	}
}
