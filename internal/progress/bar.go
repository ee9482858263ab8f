package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

type barReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func NewBarReporter(out io.Writer) Reporter {
	return &barReporter{out: out}
}

func (b *barReporter) Start(table string, total int64) {
	if total <= 0 {
		total = -1
	}
	b.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(fmt.Sprintf("%-20s", table)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (b *barReporter) Add(n int) {
	if b.bar == nil {
		return
	}
	if err := b.bar.Add(n); err != nil {
		log.Warn().Err(err).Msg("Failed to render progress")
	}
}

func (b *barReporter) Finish(table string, inserted, skipped int64) {
	if b.bar == nil {
		return
	}
	b.bar.Describe(fmt.Sprintf("%-20s", fmt.Sprintf("%s done (%d new)", table, inserted)))
	if err := b.bar.Finish(); err != nil {
		log.Warn().Err(err).Msg("Failed to render progress")
	}
	fmt.Fprintln(b.out)
	b.bar = nil
}
