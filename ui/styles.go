package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cream       = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia     = lipgloss.Color("#EE6FF8")
	green       = lipgloss.Color("#04B575")
	red         = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	gray        = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray     = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	statusGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(fuchsia).
			Padding(0, 1)

	labelStyle  = lipgloss.NewStyle().Foreground(gray)
	pathStyle   = lipgloss.NewStyle().Foreground(green)
	subtleStyle = lipgloss.NewStyle().Foreground(midGray)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	errorLogStyle = lipgloss.NewStyle().Foreground(red)

	statusMessageStyle = lipgloss.NewStyle().Foreground(statusGreen)
)

func logoView(engine string) string {
	s := logoStyle.Render("notereader")
	if engine != "" {
		s += " " + subtleStyle.Render(engine)
	}
	return s
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
