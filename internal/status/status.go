// Package status renders supervisor phases and outcomes for the front-ends.
package status

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"lfstool/internal/supervisor"
)

// Class is the colour class a front-end paints a status line with.
type Class int

const (
	Idle Class = iota
	Busy
	Success
	Failure
)

func (c Class) String() string {
	switch c {
	case Busy:
		return "busy"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "idle"
	}
}

// Ready is shown before the first run.
const Ready = "Ready"

// Glyph is the spinner frame for a phase.
func Glyph(p supervisor.Phase) string {
	frames := spinner.Line.Frames
	return frames[int(p)%len(frames)]
}

// Progress is the busy line for a phase.
func Progress(label string, p supervisor.Phase) string {
	if label == "" {
		label = "Working"
	}
	return label + " " + Glyph(p)
}

func Of(o supervisor.Outcome) Class {
	if o.Succeeded {
		return Success
	}
	return Failure
}

var (
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// Console styles a line for a terminal.
func Console(c Class, text string) string {
	switch c {
	case Busy:
		return busyStyle.Render(text)
	case Success:
		return successStyle.Render(text)
	case Failure:
		return failureStyle.Render(text)
	default:
		return text
	}
}

// Messages are the caller-supplied texts for one mode.
type Messages struct {
	Busy        string
	Success     string
	ErrorPrefix string
}

var (
	ExtractMessages = Messages{
		Busy:        "Extracting",
		Success:     "Files extracted successfully!",
		ErrorPrefix: "Extraction failed: ",
	}
	CreateMessages = Messages{
		Busy:        "Creating image",
		Success:     "Image created successfully!",
		ErrorPrefix: "Image creation failed: ",
	}
)
