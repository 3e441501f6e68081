package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette(Theme{
	Title:  "#1DB954",
	User:   "#7D56F4",
	Bot:    "#04B575",
	Status: "#FFA500",
	Muted:  "#626262",
})

// Theme names the colors of the chat shell.
type Theme struct {
	Title, User, Bot, Status, Muted string
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	user   lipgloss.Style
	bot    lipgloss.Style
	status lipgloss.Style
	help   lipgloss.Style
}

func NewPalette(t Theme) *Palette {
	return &Palette{
		title:  NewBold(t.Title).MarginBottom(1),
		user:   NewBold(t.User),
		bot:    NewBold(t.Bot),
		status: NewStyle(t.Status),
		help:   NewEm(t.Muted),
	}
}

// speaker renders the label above a transcript entry.
func (p *Palette) speaker(role Role) string {
	if role == RoleUser {
		return p.user.Render(role.String())
	}
	return p.bot.Render(role.String())
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
