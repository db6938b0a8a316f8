// Package directive extracts media generation directives from chat replies.
// The model is instructed to emit bracketed markers when the user asks for
// a visualization; this package finds the marker, lifts out the prompt,
// and returns the reply with the marker stripped.
package directive

import (
	"regexp"
	"strings"

	"conceptlens/internal/types"
)

var (
	imagePattern = regexp.MustCompile(`\[GENERATE_IMAGE:\s*(.*?)\]`)
	videoPattern = regexp.MustCompile(`\[GENERATE_VIDEO:\s*(.*?)\]`)
)

// Intent is one recognized media directive.
type Intent struct {
	Kind   types.MediaKind
	Prompt string
}

// Parse scans a model reply for a media directive. It returns the display
// text (reply with the matched directive removed and whitespace trimmed)
// and the intent, or nil when no directive is present.
//
// At most one directive is honored per reply. When both kinds appear, the
// image directive wins and the video directive is left in the text as-is;
// duplicate markers of the winning kind beyond the first are also left
// untouched.
func Parse(reply string) (string, *Intent) {
	if m := imagePattern.FindStringSubmatch(reply); m != nil {
		text := strings.TrimSpace(strings.Replace(reply, m[0], "", 1))
		return text, &Intent{Kind: types.MediaImage, Prompt: strings.TrimSpace(m[1])}
	}
	if m := videoPattern.FindStringSubmatch(reply); m != nil {
		text := strings.TrimSpace(strings.Replace(reply, m[0], "", 1))
		return text, &Intent{Kind: types.MediaVideo, Prompt: strings.TrimSpace(m[1])}
	}
	return reply, nil
}
