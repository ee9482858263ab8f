package progress

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	config "github.com/thirdweb-dev/offline-replay/configs"
)

// Reporter renders load progress. It never influences the load: every
// implementation handed to the loader is wrapped by Safe.
type Reporter interface {
	Start(table string, total int64)
	Add(n int)
	Finish(table string, inserted, skipped int64)
}

// New picks a terminal bar when out is a terminal and periodic log lines
// otherwise.
func New(cfg config.ProgressConfig, out *os.File) Reporter {
	if !cfg.Enabled {
		return Nop{}
	}
	if out != nil && (isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd())) {
		return Safe(NewBarReporter(out))
	}
	interval := time.Duration(cfg.LogInterval) * time.Millisecond
	return Safe(NewLogReporter(interval))
}

type Nop struct{}

func (Nop) Start(string, int64)         {}
func (Nop) Add(int)                     {}
func (Nop) Finish(string, int64, int64) {}
