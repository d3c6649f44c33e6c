package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorBorder    = lipgloss.Color("238") // dark gray
	colorError     = lipgloss.Color("9")   // bright red

	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	styleListSelected = lipgloss.NewStyle().
				Foreground(colorHighlight).
				Bold(true)

	styleKindUtterance = lipgloss.NewStyle().
				Foreground(colorPrimary)

	styleKindResponse = lipgloss.NewStyle().
				Foreground(colorSecondary)

	stylePanelBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder)

	styleActiveBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary)

	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleTitle = lipgloss.NewStyle().
			Foreground(colorDim).
			Bold(true)

	// wizard
	styleQuestion = lipgloss.NewStyle().
			Bold(true)

	styleAnswered = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)
)
