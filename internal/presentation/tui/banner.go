package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Catena ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"   ____      _                    ", "#818cf8"},
		{"  / ___|__ _| |_ ___ _ __   __ _  ", "#a78bfa"},
		{" | |   / _` | __/ _ \\ '_ \\ / _` | ", "#c084fc"},
		{" | |__| (_| | ||  __/ | | | (_| | ", "#e879f9"},
		{"  \\____\\__,_|\\__\\___|_| |_|\\__,_| ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
