package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type launcherKind int

const (
	kindRofi launcherKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

var launcherKinds = map[string]launcherKind{
	"rofi":   kindRofi,
	"fuzzel": kindFuzzel,
	"wofi":   kindWofi,
	"dmenu":  kindDmenu,
}

// runFunc runs a launcher with stdin and returns its stdout.
type runFunc func(name string, args []string, stdin string) (string, error)

// launcher drives any dmenu-compatible program.
type launcher struct {
	command string
	kind    launcherKind
	run     runFunc
}

func newLauncher(kind launcherKind) *launcher {
	l := &launcher{kind: kind, run: runCommand}
	for name, k := range launcherKinds {
		if k == kind {
			l.command = name
		}
	}
	return l
}

func runCommand(name string, args []string, stdin string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if isCancelExit(err) && strings.TrimSpace(string(out)) == "" {
			return "", ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s failed: %s", name, msg)
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return string(out), nil
}

// indexOutput reports whether the launcher prints the selected row index
// instead of its text.
func (l *launcher) indexOutput() bool {
	return l.kind == kindRofi || l.kind == kindFuzzel
}

func (l *launcher) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, errors.New("palette: no items to show")
	}
	display := make([]Item, len(items))
	copy(display, items)

	input, active := l.formatInput(display)
	out, err := l.run(l.command, l.buildArgs(prompt, active), input)
	if err != nil {
		return Item{}, err
	}
	selection := strings.TrimSpace(out)
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parseSelection(selection, display)
}

func (l *launcher) buildArgs(prompt string, active []int) []string {
	var args []string
	switch l.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i", "-p", prompt, "-format", "i", "-no-custom", "-markup-rows"}
		if len(active) > 0 {
			args = append(args, "-a", formatIndices(active), "-selected-row", strconv.Itoa(active[0]))
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--prompt", prompt + " ", "--index"}
	case kindWofi:
		args = []string{"--dmenu", "--prompt", prompt}
	case kindDmenu:
		args = []string{"-i", "-p", prompt}
	}
	return args
}

// formatInput renders one line per item. Launchers that echo the label back
// get unique labels so the selection maps to exactly one item.
func (l *launcher) formatInput(items []Item) (string, []int) {
	if !l.indexOutput() {
		seen := make(map[string]int)
		for i := range items {
			key := sanitizeLabel(items[i].Label)
			if count := seen[key]; count > 0 {
				items[i].Label = fmt.Sprintf("%s (%d)", key, count+1)
			}
			seen[key]++
		}
	}

	lines := make([]string, 0, len(items))
	var active []int
	for i, item := range items {
		lines = append(lines, l.formatItem(item))
		if item.IsActive && !item.IsHeader {
			active = append(active, i)
		}
	}
	return strings.Join(lines, "\n"), active
}

func (l *launcher) formatItem(item Item) string {
	display := sanitizeLabel(item.Label)
	if l.kind != kindRofi {
		if item.IsHeader {
			return "── " + display + " ──"
		}
		return display
	}

	display = html.EscapeString(display)
	if item.IsHeader {
		display = "<b>" + display + "</b>"
	}
	// Rofi row properties: one NUL, then key/value pairs separated by \x1f.
	var attrs []string
	if item.IsHeader {
		attrs = append(attrs, "nonselectable", "true")
	}
	if item.Meta != "" {
		attrs = append(attrs, "meta", sanitizeRofiField(item.Meta))
	}
	if len(attrs) == 0 {
		return display
	}
	return display + "\x00" + strings.Join(attrs, "\x1f")
}

func (l *launcher) parseSelection(selection string, items []Item) (Item, error) {
	if l.indexOutput() {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if l.formatItem(item) == selection || sanitizeLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeRofiField(value string) string {
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	return sanitizeLabel(value)
}

func formatIndices(indices []int) string {
	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, strconv.Itoa(i))
	}
	return strings.Join(parts, ",")
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection" for every supported launcher, 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
