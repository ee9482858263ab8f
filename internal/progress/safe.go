package progress

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

type safeReporter struct {
	inner Reporter
}

// Safe wraps r so that a panic while rendering is logged and swallowed.
func Safe(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	if s, ok := r.(*safeReporter); ok {
		return s
	}
	return &safeReporter{inner: r}
}

func recoverRender(op string) {
	if r := recover(); r != nil {
		log.Warn().Str("op", op).Str("panic", fmt.Sprint(r)).Msg("Progress rendering failed")
	}
}

func (s *safeReporter) Start(table string, total int64) {
	defer recoverRender("start")
	s.inner.Start(table, total)
}

func (s *safeReporter) Add(n int) {
	defer recoverRender("add")
	s.inner.Add(n)
}

func (s *safeReporter) Finish(table string, inserted, skipped int64) {
	defer recoverRender("finish")
	s.inner.Finish(table, inserted, skipped)
}
