package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")

	TitleStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2)
)

func PrintSuccess(format string, args ...any) {
	fmt.Println(SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...)))
}

func PrintWarning(format string, args ...any) {
	fmt.Println(WarningStyle.Render("! " + fmt.Sprintf(format, args...)))
}

func PrintError(format string, args ...any) {
	fmt.Println(ErrorStyle.Render("✗ " + fmt.Sprintf(format, args...)))
}

func PrintInfo(format string, args ...any) {
	fmt.Println(MutedStyle.Render(fmt.Sprintf(format, args...)))
}
