package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// summarizeOutput describes what an output shows in one line.
func summarizeOutput(of tiling.OutputFrame) string {
	if len(of.Elements) == 0 {
		return "empty"
	}
	minW, maxW := of.Elements[0].Rect.Width, of.Elements[0].Rect.Width
	for _, el := range of.Elements[1:] {
		minW = min(minW, el.Rect.Width)
		maxW = max(maxW, el.Rect.Width)
	}
	if minW == maxW {
		return fmt.Sprintf("%d windows • %d px wide", len(of.Elements), minW)
	}
	return fmt.Sprintf("%d windows • %d–%d px wide", len(of.Elements), minW, maxW)
}

// renderOutput draws the elements of one output on a width x height
// character canvas. Elements are drawn in frame order so higher z ends up
// on top; windows scrolled partly off the output are cut at the border.
func renderOutput(of tiling.OutputFrame, width, height int) []string {
	if width < 5 || height < 3 || of.Rect.Width <= 0 || of.Rect.Height <= 0 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, el := range of.Elements {
		local := tiling.Rect{
			X:      el.Rect.X - of.Rect.X,
			Y:      el.Rect.Y - of.Rect.Y,
			Width:  el.Rect.Width,
			Height: el.Rect.Height,
		}
		label := fmt.Sprintf("%d", el.Window)
		if el.Focused {
			label = "*" + label
		}
		if el.Opacity < 1 {
			label += fmt.Sprintf(" %.0f%%", el.Opacity*100)
		}
		drawTile(canvas, local, label, el.Focused, of.Rect.Width, of.Rect.Height, width, height)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

type boxRunes struct {
	h, v, tl, tr, bl, br rune
}

var (
	thinBox  = boxRunes{'─', '│', '┌', '┐', '└', '┘'}
	heavyBox = boxRunes{'━', '┃', '┏', '┓', '┗', '┛'}
)

func drawTile(canvas [][]rune, rect tiling.Rect, label string, focused bool, outW, outH, canvasW, canvasH int) {
	x1 := rect.X * canvasW / outW
	y1 := rect.Y * canvasH / outH
	x2 := (rect.X+rect.Width)*canvasW/outW - 1
	y2 := (rect.Y+rect.Height)*canvasH/outH - 1

	// Edges that fall outside the output stay open.
	leftOpen, rightOpen := rect.X < 0, rect.X+rect.Width > outW
	x1 = max(x1, 1)
	y1 = max(y1, 1)
	x2 = min(x2, canvasW-2)
	y2 = min(y2, canvasH-2)
	if x2 <= x1 || y2 <= y1 {
		return
	}

	box := thinBox
	if focused {
		box = heavyBox
	}

	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			canvas[y][x] = ' '
		}
	}
	for x := x1; x <= x2; x++ {
		canvas[y1][x] = box.h
		canvas[y2][x] = box.h
	}
	for y := y1; y <= y2; y++ {
		if !leftOpen {
			canvas[y][x1] = box.v
		}
		if !rightOpen {
			canvas[y][x2] = box.v
		}
	}
	if !leftOpen {
		canvas[y1][x1] = box.tl
		canvas[y2][x1] = box.bl
	}
	if !rightOpen {
		canvas[y1][x2] = box.tr
		canvas[y2][x2] = box.br
	}

	centerY := (y1 + y2) / 2
	if centerY <= y1 || centerY >= y2 {
		return
	}
	runes := []rune(label)
	startX := (x1+x2)/2 - len(runes)/2
	for i, r := range runes {
		if x := startX + i; x > x1 && x < x2 {
			canvas[centerY][x] = r
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	lines := make([]string, max(height, 0))
	empty := strings.Repeat(" ", max(width, 0))
	for i := range lines {
		lines[i] = empty
	}
	return lines
}
