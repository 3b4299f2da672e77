package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// progressBar draws ratio (0..1) as a fixed width bar followed by the
// percentage.
func progressBar(ratio float64, width int) string {
	if width <= 0 {
		width = 30
	}
	ratio = max(0, min(ratio, 1))
	filled := max(0, min(int(ratio*float64(width)), width))
	bar := StyleSymbols["bullet"]
	bar += strings.Repeat(StyleSymbols["hline"], filled)
	if filled < width {
		bar += strings.Repeat(" ", width-filled)
	}
	bar += StyleSymbols["bullet"]
	return fmt.Sprintf("%s %5.1f%%", bar, ratio*100)
}

func terminalHeight() int {
	_, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || height <= 0 {
		return 24 // Default fallback height
	}
	return height
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 3 || len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
