package progress

import (
	"time"

	"github.com/rs/zerolog/log"
)

// logReporter writes a progress line at most once per interval, for runs
// whose stderr is a file or a pipe.
type logReporter struct {
	interval time.Duration
	now      func() time.Time

	table string
	total int64
	done  int64
	last  time.Time
}

func NewLogReporter(interval time.Duration) Reporter {
	if interval <= 0 {
		interval = time.Second
	}
	return &logReporter{interval: interval, now: time.Now}
}

func (l *logReporter) Start(table string, total int64) {
	l.table = table
	l.total = total
	l.done = 0
	l.last = l.now()
	log.Info().Str("table", table).Int64("rows", total).Msg("Loading table")
}

func (l *logReporter) Add(n int) {
	l.done += int64(n)
	if now := l.now(); now.Sub(l.last) >= l.interval {
		l.last = now
		log.Info().Str("table", l.table).Int64("done", l.done).Int64("total", l.total).Msg("Progress")
	}
}

func (l *logReporter) Finish(table string, inserted, skipped int64) {
	log.Info().Str("table", table).Int64("inserted", inserted).Int64("skipped", skipped).Msg("Table loaded")
}
