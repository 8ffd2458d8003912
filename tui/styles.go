// Package tui provides the interactive terminal UI for qbet using Charm libraries
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"qbet/flow"
)

// Color palette
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"} // Violet
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#0EA5E9", Dark: "#38BDF8"} // Sky blue
	ColorAccent    = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"} // Amber

	ColorSuccess = lipgloss.AdaptiveColor{Light: "#10B981", Dark: "#34D399"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#FBBF24"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#EF4444", Dark: "#F87171"}

	ColorText   = lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#F1F5F9"}
	ColorSubtle = lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#94A3B8", Dark: "#64748B"}
	ColorBorder = lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#334155"}
)

// Selection overlay tints, blended into image pixels on the canvas.
const (
	selectionTint = "#34D399"
	previewTint   = "#FBBF24"
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	BodyStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)

	BadgeStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#FFFFFF"))

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)
)

// StepStatus represents the status of a step in the header
type StepStatus int

const (
	StepPending StepStatus = iota
	StepActive
	StepCompleted
	StepError
)

// pipelineSteps are the screens shown in the step indicator, in order.
var pipelineSteps = []struct {
	screen flow.Screen
	title  string
}{
	{flow.ScreenPath, "Pick"},
	{flow.ScreenIntake, "Copy"},
	{flow.ScreenSelect, "Select"},
	{flow.ScreenRecognize, "OCR"},
	{flow.ScreenReview, "Review"},
	{flow.ScreenLog, "Bank"},
}

// StepIndicator renders the pipeline with current marked active and the
// steps before it completed. failed marks the active step as an error.
func StepIndicator(current flow.Screen, failed bool) string {
	active := -1
	for i, s := range pipelineSteps {
		if s.screen == current {
			active = i
		}
	}
	if current == flow.ScreenDone {
		active = len(pipelineSteps)
	}

	var b strings.Builder
	for i, step := range pipelineSteps {
		status := StepPending
		switch {
		case i < active:
			status = StepCompleted
		case i == active && failed:
			status = StepError
		case i == active:
			status = StepActive
		}

		var icon string
		var style lipgloss.Style
		switch status {
		case StepCompleted:
			icon = "[x]"
			style = lipgloss.NewStyle().Foreground(ColorSuccess)
		case StepActive:
			icon = "[>]"
			style = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
		case StepError:
			icon = "[!]"
			style = lipgloss.NewStyle().Foreground(ColorError)
		default:
			icon = "[ ]"
			style = lipgloss.NewStyle().Foreground(ColorMuted)
		}

		b.WriteString(style.Render(icon + " " + step.title))
		if i < len(pipelineSteps)-1 {
			connector := lipgloss.NewStyle().Foreground(ColorMuted)
			if status == StepCompleted {
				connector = lipgloss.NewStyle().Foreground(ColorSuccess)
			}
			b.WriteString(connector.Render(" - "))
		}
	}
	return b.String()
}

// ProgressBar renders how far through the image set the session is
func ProgressBar(current, total int, width int) string {
	if total == 0 {
		total = 1
	}

	percentage := float64(current) / float64(total)
	filled := int(percentage * float64(width))
	if filled > width {
		filled = width
	}

	filledChar := lipgloss.NewStyle().Foreground(ColorPrimary).Render("█")
	emptyChar := lipgloss.NewStyle().Foreground(ColorBorder).Render("░")

	bar := strings.Repeat(filledChar, filled) + strings.Repeat(emptyChar, width-filled)

	countText := lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(fmt.Sprintf(" %d/%d", current, total))

	return bar + countText
}

// KeyHelp renders keyboard shortcut help from key, description pairs
func KeyHelp(pairs ...string) string {
	if len(pairs) == 0 {
		return ""
	}

	helpStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	keyStyle := lipgloss.NewStyle().Foreground(ColorSubtle).Bold(true)

	var parts []string
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, keyStyle.Render(pairs[i])+" "+helpStyle.Render(pairs[i+1]))
	}

	return helpStyle.Render(strings.Join(parts, "  |  "))
}
