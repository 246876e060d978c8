package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// renderOutputBar renders one tab per output, the selected one highlighted.
func renderOutputBar(outputs []tiling.OutputFrame, selected, width int) string {
	if len(outputs) == 0 {
		return tabBarStyle.Width(width).Render(inactiveTabStyle.Render("no outputs"))
	}
	tabs := make([]string, 0, len(outputs))
	for i, of := range outputs {
		label := fmt.Sprintf("%d:%s %dx%d", i+1, of.Output, of.Rect.Width, of.Rect.Height)
		if i == selected {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(st *ipc.StatusData, err error, width int) string {
	var status string
	if err != nil || st == nil {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = dot + " daemon not running"
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		parts := []string{
			dot + " " + st.Backend,
			fmt.Sprintf("tiles:%d", st.Engine.Tiles),
			fmt.Sprintf("pending:%d", st.Engine.Pending),
			fmt.Sprintf("frames:%d", st.Frames),
		}
		if st.Focused != 0 {
			parts = append(parts, fmt.Sprintf("focused:%d", st.Focused))
		}
		if st.Animating {
			parts = append(parts, "animating")
		}
		status = strings.Join(parts, "  ")
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom help/keybinding bar, with the last
// action error if there is one.
func renderHelpBar(actionErr string, width int) string {
	help := "h/l: columns  j/k: windows  c: center  f: fullscreen  tab: output  q: quit"
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	if actionErr == "" {
		return style.Render(help)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Width(width).Padding(0, 1).Render(actionErr),
		style.Render(help),
	)
}
