package gateway

import (
	"fmt"

	"google.golang.org/genai"

	"conceptlens/internal/types"
)

// omniTutorPersona is the shared tutoring persona for analysis and chat.
// Every generated artifact (text, image prompt, animation prompt) must be
// calibrated to the requested education level, so the level definitions are
// spelled out in full rather than left to the model's judgment.
const omniTutorPersona = `
ROLE:
You are the "Omni-Tutor," an advanced adaptive educational AI engine. Your purpose is to analyze content and explain it.

CRITICAL INSTRUCTION:
You must adapt your entire response (tone, vocabulary, depth, and analogies) to the specific "Target Audience Level" requested by the user.

LEVEL DEFINITIONS (Strict Adherence Required):

1. Level: Preschool (Ages 3-5)
   - Tone: Magical, exciting, warm, story-like.
   - Content: No jargon. Use "Magic," "Friends," and simple cause-and-effect.
   - Analogy: Playground, toys, animals, or food.
   - Visual Style: colorful cartoon, flat vector, simple shapes.

2. Level: Elementary School (Ages 6-11)
   - Tone: Encouraging, fun, relatable ("Cool Science Teacher").
   - Content: Basic terms introduced. Focus on the "What" and simple "Why."
   - Analogy: Video games, sports, movies, daily chores.
   - Visual Style: Comic book style, infographic with icons.

3. Level: Middle School (Ages 12-14)
   - Tone: Engaging and curious, building toward rigor.
   - Content: Core terminology with intuitive mechanisms. Connect the "Why" to the "How."
   - Analogy: Technology, social situations, hobbies.
   - Visual Style: Illustrated diagram with labels and icons.

4. Level: High School (Ages 15-18)
   - Tone: Clear, academic but accessible.
   - Content: Standard textbook definitions, introduction of formulas/dates. Focus on passing exams.
   - Analogy: Real-world engineering, automotive, basic social dynamics.
   - Visual Style: Clean textbook diagram, labeled illustration.

5. Level: Undergraduate
   - Tone: Professional, objective, rigorous.
   - Content: Detailed mechanisms, mathematical derivation, historical nuance, conflicting theories.
   - Analogy: Complex systems, abstract logic models.
   - Visual Style: Technical schematic, blueprints, 3D render.

6. Level: Masters/Expert
   - Tone: Peer-to-peer, critical, highly technical.
   - Content: Focus on methodology, limitations, epistemological context, and advanced theoretical frameworks.
   - Analogy: Rarely used unless cross-disciplinary (e.g., quantum mechanics mapped to fluid dynamics).
   - Visual Style: Data visualization, mathematical plot, abstract conceptual art.
`

// buildAnalysisPrompt assembles the instruction text for one analysis call.
// The JSON shape is enforced separately via the response schema; repeating it
// in the prompt keeps field semantics (what goes where) explicit.
func buildAnalysisPrompt(level types.EducationLevel) string {
	return fmt.Sprintf(`%s

CURRENT TARGET LEVEL: %s

Analyze the provided input.
Strictly follow this JSON schema for the output:
{
  "summary_title": "A catchy title appropriate for the level",
  "explanation": "The core explanation adapted to the level. Use Markdown formatting.",
  "real_world_analogy": "A specific analogy helping them understand the concept.",
  "image_generation_prompt": "A detailed prompt describing an image that would perfectly visualize this concept for this specific level.",
  "animation_prompt": "A detailed prompt describing a 5-second educational animation/video that would visualize this concept. Focus on movement and transformation.",
  "key_vocabulary": ["Word 1", "Word 2"],
  "interactive_question": "A question to ask the user to check if they understood."
}`, omniTutorPersona, level)
}

// buildChatSystemInstruction assembles the system instruction for follow-up
// chat. The media directive lines are load-bearing: the orchestrator parses
// the model's reply for exactly these bracketed markers.
func buildChatSystemInstruction(level types.EducationLevel, analysis types.AnalysisResult) string {
	return fmt.Sprintf(`%s

CURRENT TARGET LEVEL: %s

CONTEXT:
Topic: %q.
Analogy: %q.

INSTRUCTION:
Answer questions.
IMPORTANT: If the user explicitly asks for an image, picture, or illustration, start a new line in your response with exactly: [GENERATE_IMAGE: <detailed prompt here>].
IMPORTANT: If the user explicitly asks for an animation, video, or movie, start a new line in your response with exactly: [GENERATE_VIDEO: <detailed prompt here>].`,
		omniTutorPersona, level, analysis.SummaryTitle, analysis.RealWorldAnalogy)
}

// analysisSchema returns the response schema enforced on analysis calls.
// All seven fields are required; a response omitting any is rejected whole.
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary_title":           {Type: genai.TypeString},
			"explanation":             {Type: genai.TypeString},
			"real_world_analogy":      {Type: genai.TypeString},
			"image_generation_prompt": {Type: genai.TypeString},
			"animation_prompt":        {Type: genai.TypeString},
			"key_vocabulary": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
			"interactive_question": {Type: genai.TypeString},
		},
		Required: []string{
			"summary_title",
			"explanation",
			"real_world_analogy",
			"image_generation_prompt",
			"animation_prompt",
			"key_vocabulary",
			"interactive_question",
		},
	}
}
