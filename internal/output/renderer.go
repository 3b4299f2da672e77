package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/tanq16/pulldown/internal/controller"
	"github.com/tanq16/pulldown/internal/transfer"
	"github.com/tanq16/pulldown/internal/utils"
)

const (
	barWidth      = 24
	nameWidth     = 28
	maxCompleted  = 8
	reservedLines = 3
)

// Renderer redraws the download table in place. It is not safe for
// concurrent use; the session's display loop owns it.
type Renderer struct {
	w        io.Writer
	numLines int
	hint     string
	height   func() int
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, height: terminalHeight}
}

// SetHint sets a line printed under the table, usually the command help.
func (r *Renderer) SetHint(hint string) {
	r.hint = hint
}

// Render clears what the previous call printed and draws records.
func (r *Renderer) Render(records []controller.Record, selected transfer.ID) {
	var b strings.Builder
	if r.numLines > 0 {
		fmt.Fprintf(&b, "\033[%dA\033[J", r.numLines)
	}
	lines := r.layout(records, selected)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	r.numLines = len(lines)
	io.WriteString(r.w, b.String())
}

// layout keeps active downloads visible and trims finished ones first when
// the terminal is too short.
func (r *Renderer) layout(records []controller.Record, selected transfer.ID) []string {
	available := max(r.height()-reservedLines, 1)
	var active, completed []controller.Record
	for _, rec := range records {
		if rec.Terminal() {
			completed = append(completed, rec)
		} else {
			active = append(active, rec)
		}
	}
	var lines []string
	if len(records) == 0 {
		lines = append(lines, debugStyle.Render("  no downloads yet"))
	}
	hidden := 0
	if len(completed) > maxCompleted {
		hidden = len(completed) - maxCompleted
	}
	if room := available - len(active) - 1; len(completed)-hidden > room {
		hidden = len(completed) - max(room, 0)
	}
	if hidden > 0 {
		lines = append(lines, infoStyle.Render(fmt.Sprintf("  %d finished downloads hidden ...", hidden)))
		completed = completed[hidden:]
	}
	for _, rec := range completed {
		lines = append(lines, FormatRecord(rec, rec.ID == selected))
	}
	for _, rec := range active {
		lines = append(lines, FormatRecord(rec, rec.ID == selected))
	}
	if len(lines) > available {
		lines = lines[len(lines)-available:]
	}
	if r.hint != "" {
		lines = append(lines, debugStyle.Render("  "+r.hint))
	}
	return lines
}

// FormatRecord renders one download as a single line.
func FormatRecord(rec controller.Record, selected bool) string {
	cursor := "  "
	if selected {
		cursor = StyleSymbols["arrow"] + " "
	}
	name := fmt.Sprintf("%-*s", nameWidth, truncate(rec.FileName, nameWidth))
	head := fmt.Sprintf("%s%s %s %s", cursor, StatusIndicator(rec.State()), debugStyle.Render(fmt.Sprintf("[%d]", rec.ID)), name)

	switch rec.State() {
	case controller.StateFailed:
		return head + " " + errorStyle.Render("failed: "+rec.Err)
	case controller.StateCancelled:
		return head + " " + warningStyle.Render("cancelled")
	case controller.StateDone:
		return head + " " + successStyle.Render(utils.FormatBytes(uint64(max(rec.Downloaded, 0)))+" done")
	}

	sep := " " + StyleSymbols["bullet"] + " "
	var size string
	if rec.TotalSize > 0 {
		size = fmt.Sprintf("%s / %s", utils.FormatBytes(uint64(rec.Downloaded)), utils.FormatBytes(uint64(rec.TotalSize)))
		size += " " + progressBar(rec.Ratio(), barWidth)
	} else {
		size = utils.FormatBytes(uint64(max(rec.Downloaded, 0)))
	}
	line := head + " " + streamStyle.Render(size) + sep + streamStyle.Render(utils.FormatSpeed(rec.Speed))
	if rec.Paused {
		line += sep + warningStyle.Render("paused")
	}
	return line
}

func StatusIndicator(state controller.State) string {
	switch state {
	case controller.StateDone:
		return successStyle.Render(StyleSymbols["pass"])
	case controller.StateFailed:
		return errorStyle.Render(StyleSymbols["fail"])
	case controller.StateCancelled:
		return warningStyle.Render(StyleSymbols["cancel"])
	case controller.StatePaused:
		return warningStyle.Render(StyleSymbols["paused"])
	case controller.StatePending:
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["bullet"])
	}
}

// ShowSummary prints the totals and every failure once the session ends.
func (r *Renderer) ShowSummary(records []controller.Record) {
	var done, failed, cancelled int
	for _, rec := range records {
		switch {
		case rec.Done:
			done++
		case rec.Failed:
			failed++
		case rec.Cancelled:
			cancelled++
		}
	}
	n := len(records)
	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "  "+success2Style.Render(fmt.Sprintf("Completed %d of %d", done, n)))
	if cancelled > 0 {
		fmt.Fprintln(r.w, "  "+warningStyle.Render(fmt.Sprintf("Cancelled %d of %d", cancelled, n)))
	}
	if failed > 0 {
		fmt.Fprintln(r.w, "  "+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failed, n)))
		fmt.Fprintln(r.w)
		fmt.Fprintln(r.w, "  "+errorStyle.Bold(true).Render("Errors:"))
		i := 0
		for _, rec := range records {
			if !rec.Failed {
				continue
			}
			i++
			fmt.Fprintf(r.w, "    %s %s\n", errorStyle.Render(fmt.Sprintf("%d.", i)), errorStyle.Render(rec.URL))
			fmt.Fprintf(r.w, "      %s\n", errorStyle.Render("Error: "+rec.Err))
		}
	}
	fmt.Fprintln(r.w)
	r.numLines = 0
}
