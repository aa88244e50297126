package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskdown/internal/theme"
)

// sidebarColumns is the sidebar width, border included.
const sidebarColumns = 24

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	BannerHeight    int
	StatusBarHeight int
	Sidebar         bool
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// WithBanner reserves a row for the read-only banner.
func (l Layout) WithBanner(show bool) Layout {
	l.BannerHeight = 0
	if show {
		l.BannerHeight = 1
	}
	return l
}

// WithSidebar reserves room for the project sidebar.
func (l Layout) WithSidebar(show bool) Layout {
	l.Sidebar = show
	return l
}

// SidebarWidth returns the columns taken by the sidebar, border included.
func (l Layout) SidebarWidth() int {
	if !l.Sidebar {
		return 0
	}
	return sidebarColumns
}

// ContentWidth returns the width left for the main view.
func (l Layout) ContentWidth() int {
	return max(l.Width-l.SidebarWidth(), 0)
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, banner and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-l.HeaderHeight-l.BannerHeight-l.StatusBarHeight, 0)
}

// RenderHeader renders the top header bar with a title and a right-aligned
// status.
func (l Layout) RenderHeader(title string, status string) string {
	return fill(theme.HeaderStyle, l.Width, title, status)
}

// RenderBanner renders the read-only warning row, or "" when hidden.
func (l Layout) RenderBanner(msg string) string {
	if l.BannerHeight == 0 {
		return ""
	}
	return fill(theme.BannerStyle, l.Width, msg, "")
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return fill(theme.StatusBarStyle, l.Width, hints, "")
}

// RenderBody places the sidebar, when shown, left of the content.
func (l Layout) RenderBody(sidebar, content string) string {
	if !l.Sidebar {
		return content
	}
	side := theme.SidebarStyle.
		Width(sidebarColumns - 1).
		Height(l.ContentHeight()).
		Render(sidebar)
	return lipgloss.JoinHorizontal(lipgloss.Top, side, content)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, banner, content area, and status bar.
func (l Layout) RenderWithFrame(header, banner, content, statusBar string) string {
	parts := []string{header}
	if banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// fill renders left and right text on one row of style, padded to width.
func fill(style lipgloss.Style, width int, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}
