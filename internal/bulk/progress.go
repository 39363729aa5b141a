package bulk

import (
	"fmt"
	"math"
	"strings"
)

const barCells = 10

// Report is the progress of a bulk run.
type Report struct {
	Answered int
	Total    int
	Percent  int
}

// Progress computes how far a run is. A total of zero reports 0%.
func Progress(total, remaining int) Report {
	answered := max(total-remaining, 0)

	percent := 0
	if total > 0 {
		percent = int(math.Round(100 * float64(answered) / float64(total)))
	}

	return Report{Answered: answered, Total: total, Percent: percent}
}

// Filled is the number of filled bar cells.
func (r Report) Filled() int {
	filled := int(math.Round(float64(r.Percent) * barCells / 100))
	return min(max(filled, 0), barCells)
}

// Bar renders the 10-cell progress bar, e.g. ▓▓▓░░░░░░░.
func (r Report) Bar() string {
	filled := r.Filled()
	return strings.Repeat("▓", filled) + strings.Repeat("░", barCells-filled)
}

func (r Report) Message() string {
	return fmt.Sprintf("📊 Progress Update:\n\n✅ Answered: %d / %d\n📊 Progress: %s %d%%",
		r.Answered, r.Total, r.Bar(), r.Percent)
}
