package view

import (
	"fmt"
	"io"
	"os"
	"strings"

	"smartstay-cli/api"

	"golang.org/x/term"
)

const (
	ansiReset   = "\x1b[0m"
	ansiGreen   = "\x1b[32m"
	ansiDim     = "\x1b[2m"
	ansiHighlit = "\x1b[1;97;45m"
)

type RenderOptions struct {
	Color bool
	// Compact drops the legend and the summary line.
	Compact bool
}

func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func Render(w io.Writer, floors [api.FloorCount]FloorView, opts RenderOptions) error {
	var b strings.Builder
	if !opts.Compact {
		b.WriteString("Live Occupancy Map\n")
		fmt.Fprintf(&b, "Legend: %s available  %s occupied  %s just allocated\n",
			legendCell(StatusAvailable, opts.Color),
			legendCell(StatusOccupied, opts.Color),
			legendCell(StatusJustAllocated, opts.Color),
		)
	}

	for _, floor := range floors {
		fmt.Fprintf(&b, "Floor %02d |", floor.Floor)
		for _, room := range floor.Rooms {
			b.WriteByte(' ')
			b.WriteString(roomCell(room.Number, room.Status, opts.Color))
		}
		b.WriteByte('\n')
	}

	if !opts.Compact {
		summary := Summarize(floors)
		fmt.Fprintf(&b, "%d rooms: %d available, %d occupied, %d just allocated\n",
			summary.Total, summary.Available, summary.Occupied, summary.JustAllocated)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func legendCell(status Status, color bool) string {
	if color {
		return paint(status, marker(status))
	}
	return marker(status)
}

func roomCell(number api.RoomNumber, status Status, color bool) string {
	if color {
		return paint(status, fmt.Sprintf("%4s", number.String()))
	}
	return marker(status) + number.String()
}

func paint(status Status, text string) string {
	switch status {
	case StatusJustAllocated:
		return ansiHighlit + text + ansiReset
	case StatusOccupied:
		return ansiDim + text + ansiReset
	default:
		return ansiGreen + text + ansiReset
	}
}

func marker(status Status) string {
	switch status {
	case StatusJustAllocated:
		return "*"
	case StatusOccupied:
		return "x"
	default:
		return "·"
	}
}
