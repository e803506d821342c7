package export

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress is a feature counter drawn with mpb. It draws nothing unless
// enabled and stderr is a terminal.
type Progress struct {
	container   *mpb.Progress
	bar         *mpb.Bar
	enabled     bool
	description string
}

var descLength = 20

// NewProgress creates a progress bar over total features.
func NewProgress(total int, enabled bool) *Progress {
	return newProgress(os.Stderr, total, enabled && isTerminal())
}

func newProgress(out io.Writer, total int, enabled bool) *Progress {
	p := &Progress{enabled: enabled}
	if !enabled {
		return p
	}

	fmt.Fprintln(out)
	p.container = mpb.New(
		mpb.WithOutput(out),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				if len(p.description) > descLength {
					return p.description[:descLength-2] + ".."
				}
				return p.description
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
	return p
}

// Update sets the current count and the layer being written.
func (p *Progress) Update(current int, description string) {
	if !p.enabled || p.bar == nil {
		return
	}
	p.description = description
	p.bar.SetCurrent(int64(current))
}

// Finish completes the bar and waits for the last refresh.
func (p *Progress) Finish() {
	if !p.enabled || p.container == nil {
		return
	}
	p.bar.SetTotal(-1, true)
	p.container.Wait()
	p.container = nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
