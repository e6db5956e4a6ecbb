package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/alnah/go-cleanscript/internal/pipeline"
)

const progressWidth = 40

var (
	doneStyle = lipgloss.NewStyle().Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// progressBar redraws a single stderr line on every completion.
// Updates come from the pipeline collector goroutine only.
type progressBar struct {
	w     io.Writer
	bar   progress.Model
	drawn bool
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(progressWidth)),
	}
}

// Update renders p.
func (b *progressBar) Update(p pipeline.Progress) {
	b.drawn = true
	_, _ = fmt.Fprintf(b.w, "\r%s %d/%d", b.bar.ViewAs(p.Fraction()), p.Completed, p.Total)
}

// Done ends the progress line.
func (b *progressBar) Done() {
	if b.drawn {
		_, _ = fmt.Fprintln(b.w)
	}
}
