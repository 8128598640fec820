package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	issueStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.NormalBorder()).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("220")). // yellow
			Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			Align(lipgloss.Center, lipgloss.Center)

	panelLoadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("229")) // pale yellow

	panelEmptyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("33")) // blue

	sfxStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	captionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("230")).
			Padding(0, 1)

	speakerTagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("160")). // red
			Padding(0, 1)

	bubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	writingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("214")) // yellow

	toastStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("196")). // red
			Padding(0, 1)

	// ANSI colours per button colour name
	choiceColors = map[string]lipgloss.Color{
		"pink":  lipgloss.Color("212"),
		"red":   lipgloss.Color("196"),
		"green": lipgloss.Color("84"),
		"cyan":  lipgloss.Color("51"),
	}
)

// RenderTerminal draws the game screen for a terminal of the given width.
// The start screen is handled by the console itself.
func RenderTerminal(p Page, width int) string {
	if width < 20 {
		width = 20
	}
	inner := width - 4

	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		issueStyle.Render(fmt.Sprintf("%s  PAGE %d", p.Header.Issue, p.Header.Page)),
		"  ",
		badgeStyle.Render(p.Header.GenreBadge),
	)
	b.WriteString(header + "\n\n")

	b.WriteString(renderPanel(p.Panel, inner) + "\n\n")

	if p.Dialogue.Caption != "" {
		b.WriteString(captionStyle.Render(wordwrap.String(p.Dialogue.Caption, inner-2)) + "\n\n")
	}
	if p.Dialogue.ShowBubble {
		b.WriteString(speakerTagStyle.Render(p.Dialogue.Speaker) + "\n")
		b.WriteString(bubbleStyle.Render(wordwrap.String(p.Dialogue.Dialogue, inner-4)) + "\n\n")
	}

	if p.Controls.Loading {
		b.WriteString(writingStyle.Render(p.Controls.LoadingText) + "\n")
	} else {
		for _, c := range p.Controls.Choices {
			style := lipgloss.NewStyle().Bold(true).Foreground(choiceColors[c.Color])
			line := fmt.Sprintf("[%d] %s", c.Number, strings.ToUpper(c.Text))
			b.WriteString(style.Render(wordwrap.String(line, inner)) + "\n")
		}
	}

	if p.Toast.Visible {
		b.WriteString("\n" + toastStyle.Render(wordwrap.String(p.Toast.Message, inner-2)) + "\n")
	}

	return b.String()
}

func renderPanel(p Panel, width int) string {
	var body string
	switch {
	case p.Loading:
		body = panelLoadingStyle.Render(" " + p.Status + " ")
	case p.Empty:
		body = panelEmptyStyle.Render(" " + p.Status + " ")
	default:
		body = "PANEL ART READY\n\n" + wordwrap.String(p.Alt, width-4)
	}
	if p.SoundEffect != "" {
		body = sfxStyle.Render(p.SoundEffect) + "\n\n" + body
	}
	return panelStyle.Width(width).Height(7).Render(body)
}
