package tui

import (
	"fmt"
	"io"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"     _ _     _           _   _            ", "#5865f2"},
	{"  __| (_)___| |__   ___ | |_| |_ ___ _ __ ", "#6d72f3"},
	{" / _` | / __| '_ \\ / _ \\| __| __/ _ \\ '__|", "#8b7cf6"},
	{"| (_| | \\__ \\ |_) | (_) | |_| ||  __/ |   ", "#a78bfa"},
	{" \\__,_|_|___/_.__/ \\___/ \\__|\\__\\___|_|   ", "#c084fc"},
}

// PrintBanner writes the disbotter banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	out := NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
