package chat

import (
	"fmt"
	"strings"

	"conceptlens/cmd/lens/ui"
	"conceptlens/internal/types"
)

func (m Model) View() string {
	if !m.ready {
		return "Starting ConceptLens..."
	}

	if m.viewMode == HistoryView {
		return m.list.View()
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.state.Err != "" {
		b.WriteString(m.styles.Error.Render("✗ " + m.state.Err))
		b.WriteString("\n")
	}

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" ConceptLens ")
	level := m.state.Level
	if sess, ok := m.state.CurrentSession(); ok {
		level = sess.Level
	}
	badge := m.styles.LevelBadge.Render(string(level))
	return title + " " + badge
}

func (m Model) renderStatus() string {
	var parts []string
	if m.state.IsAnalyzing {
		parts = append(parts, m.spinner.View()+" Analyzing...")
	}
	if m.state.IsGeneratingImage {
		parts = append(parts, m.spinner.View()+" Generating illustration...")
	}
	if m.state.IsGeneratingVideo {
		parts = append(parts, m.spinner.View()+" Generating animation (this can take minutes)...")
	}
	if m.state.IsChatting {
		parts = append(parts, m.spinner.View()+" Thinking...")
	}
	if len(parts) == 0 {
		return ""
	}
	return m.styles.Info.Render(strings.Join(parts, "  ")) + "\n"
}

func (m Model) renderFooter() string {
	switch m.viewMode {
	case InputView:
		return m.styles.Footer.Render("Enter analyze · Tab level · Ctrl+H history · Ctrl+C quit")
	default:
		return m.styles.Footer.Render("Enter ask · Ctrl+G video · Ctrl+L next level · Ctrl+N new · Ctrl+H history · Ctrl+C quit")
	}
}

// renderContent builds the scrollable center pane.
func (m Model) renderContent() string {
	sess, ok := m.state.CurrentSession()
	if !ok {
		return m.renderWelcome()
	}

	var b strings.Builder
	b.WriteString(m.renderMarkdown(sessionMarkdown(sess)))
	b.WriteString("\n")
	b.WriteString(m.renderMedia(sess))

	if len(sess.ChatHistory) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.RenderDivider(m.viewport.Width))
		b.WriteString("\n")
		b.WriteString(m.renderTranscript(sess))
	}

	return b.String()
}

func (m Model) renderWelcome() string {
	var b strings.Builder
	b.WriteString(ui.Logo(m.styles))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Title.Render("Explore any concept, at any level."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Body.Render("Type a topic below and press Enter. Tab cycles the target audience, from preschool stories to expert briefings."))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Current level: " + string(m.state.Level)))
	return b.String()
}

// sessionMarkdown lays out one analysis as a markdown document.
func sessionMarkdown(sess types.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sess.Result.SummaryTitle)
	b.WriteString(sess.Result.Explanation)
	b.WriteString("\n\n## Real-World Analogy\n\n")
	b.WriteString(sess.Result.RealWorldAnalogy)
	if len(sess.Result.KeyVocabulary) > 0 {
		b.WriteString("\n\n## Key Vocabulary\n\n")
		for _, word := range sess.Result.KeyVocabulary {
			fmt.Fprintf(&b, "- %s\n", word)
		}
	}
	b.WriteString("\n## Check Your Understanding\n\n")
	fmt.Fprintf(&b, "> %s\n", sess.Result.InteractiveQuestion)
	return b.String()
}

// renderMedia summarizes generated media. Data URIs are not renderable in
// a terminal, so sizes stand in for the content.
func (m Model) renderMedia(sess types.Session) string {
	var b strings.Builder
	if sess.GeneratedImageURL != "" {
		b.WriteString(m.styles.Success.Render(fmt.Sprintf("◉ Illustration ready (%s)", dataURISize(sess.GeneratedImageURL))))
		b.WriteString("\n")
	}
	if sess.GeneratedVideoURL != "" {
		b.WriteString(m.styles.Success.Render(fmt.Sprintf("▶ Animation ready (%s)", dataURISize(sess.GeneratedVideoURL))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderTranscript(sess types.Session) string {
	var b strings.Builder
	for _, msg := range sess.ChatHistory {
		switch msg.Role {
		case types.RoleUser:
			b.WriteString(m.styles.UserMessage.Render("You: " + msg.Text))
		default:
			b.WriteString(m.styles.TutorMessage.Render(m.renderMarkdown(msg.Text)))
			if msg.IsGeneratingMedia {
				b.WriteString("\n")
				b.WriteString(m.styles.Info.Render(m.spinner.View() + " generating " + string(msg.MediaKind) + "..."))
			} else if msg.MediaURL != "" {
				b.WriteString("\n")
				b.WriteString(m.styles.Success.Render(fmt.Sprintf("◉ %s attached (%s)", msg.MediaKind, dataURISize(msg.MediaURL))))
			}
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderMarkdown(src string) string {
	if m.renderer == nil {
		return src
	}
	out, err := m.renderer.Render(src)
	if err != nil {
		return src
	}
	return strings.TrimRight(out, "\n")
}

// dataURISize reports the approximate decoded size of a base64 data URI.
func dataURISize(uri string) string {
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return "unknown size"
	}
	n := len(uri) - idx - 1
	bytes := n * 3 / 4
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
