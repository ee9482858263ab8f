package validation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/thirdweb-dev/offline-replay/internal/metrics"
)

// The output tables reference each other by convention only, so nothing
// stops a snapshot from carrying a log whose transaction was never captured.
// These checks report such rows; they never modify the database.

type Check struct {
	Name  string
	Query string
}

var Checks = []Check{
	{
		Name: "transactions_without_block",
		Query: `SELECT COUNT(*) FROM transactions t
			WHERE NOT EXISTS (SELECT 1 FROM blocks b WHERE b.number = t.block_number)`,
	},
	{
		Name: "logs_without_transaction",
		Query: `SELECT COUNT(*) FROM logs l
			WHERE NOT EXISTS (SELECT 1 FROM transactions t WHERE t.hash = l.tx_hash)`,
	},
	{
		Name: "logs_without_block",
		Query: `SELECT COUNT(*) FROM logs l
			WHERE NOT EXISTS (SELECT 1 FROM blocks b WHERE b.number = l.block_number)`,
	},
	{
		Name: "traces_without_transaction",
		Query: `SELECT COUNT(*) FROM traces r
			WHERE NOT EXISTS (SELECT 1 FROM transactions t WHERE t.hash = r.tx_hash)`,
	},
	{
		// blocks whose declared tx_count disagrees with the transactions loaded
		Name: "blocks_with_tx_count_mismatch",
		Query: `SELECT COUNT(*) FROM blocks b
			WHERE b.tx_count <> (SELECT COUNT(*) FROM transactions t WHERE t.block_number = b.number)`,
	},
}

type Finding struct {
	Check string
	Rows  int64
}

type Report struct {
	Findings []Finding
}

// Clean reports whether every check came back empty.
func (r Report) Clean() bool {
	for _, f := range r.Findings {
		if f.Rows > 0 {
			return false
		}
	}
	return true
}

func (r Report) Rows(check string) int64 {
	for _, f := range r.Findings {
		if f.Check == check {
			return f.Rows
		}
	}
	return 0
}

func FindDanglingReferences(ctx context.Context, db *sql.DB) (Report, error) {
	var report Report
	for _, check := range Checks {
		var n int64
		if err := db.QueryRowContext(ctx, check.Query).Scan(&n); err != nil {
			return report, fmt.Errorf("failed to run check %s: %w", check.Name, err)
		}
		metrics.DanglingReferences.WithLabelValues(check.Name).Set(float64(n))
		if n == 0 {
			log.Debug().Str("check", check.Name).Msg("No dangling references found")
		} else {
			log.Warn().Str("check", check.Name).Int64("rows", n).Msg("Found dangling references")
		}
		report.Findings = append(report.Findings, Finding{Check: check.Name, Rows: n})
	}
	return report, nil
}
