package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/nergy-se/priceanalyzer/pkg/analyzer"
	"github.com/nergy-se/priceanalyzer/pkg/driver"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Period is one stored classified period.
type Period struct {
	Area       string    `json:"area"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Price      float64   `json:"price"`
	Correction float64   `json:"correction"`
	Reason     string    `json:"reason"`
	HotWater   float64   `json:"hot_water"`
	IsTomorrow bool      `json:"is_tomorrow"`
}

// SQLite keeps the history of classified periods. Later recomputations of the same period replace earlier rows.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("error setting WAL mode: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating: %w", err)
	}

	logrus.Infof("store: sqlite opened: %s", path)
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS periods (
			area         TEXT    NOT NULL,
			period_start INTEGER NOT NULL,
			period_end   INTEGER NOT NULL,
			price        REAL    NOT NULL,
			correction   REAL    NOT NULL,
			reason       TEXT    NOT NULL,
			hot_water    REAL    NOT NULL,
			is_tomorrow  INTEGER NOT NULL,
			updated      INTEGER NOT NULL,
			PRIMARY KEY (area, period_start)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_periods_start ON periods(period_start)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Notify stores today's and tomorrow's classified periods of the snapshot.
func (s *SQLite) Notify(ctx context.Context, snap *driver.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO periods
		(area, period_start, period_end, price, correction, reason, hot_water, is_tomorrow, updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(area, period_start) DO UPDATE SET
			period_end = excluded.period_end,
			price = excluded.price,
			correction = excluded.correction,
			reason = excluded.reason,
			hot_water = excluded.hot_water,
			is_tomorrow = excluded.is_tomorrow,
			updated = excluded.updated`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	updated := snap.Computed.Unix()
	for _, list := range [][]analyzer.ClassifiedPeriod{snap.Today, snap.Tomorrow} {
		for _, p := range list {
			_, err := stmt.ExecContext(ctx,
				snap.Area,
				p.Start.Unix(),
				p.End.Unix(),
				p.Value,
				p.AdjustedCorrection,
				string(p.Reason),
				p.HotWater.Setpoint,
				boolToInt(p.IsTomorrow),
				updated,
			)
			if err != nil {
				return fmt.Errorf("error storing period %s: %w", p.Start, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}
	return nil
}

// History returns the stored periods of area starting in [from, to) in chronological order.
func (s *SQLite) History(ctx context.Context, area string, from, to time.Time) ([]Period, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT area, period_start, period_end, price, correction, reason, hot_water, is_tomorrow
		FROM periods WHERE area = ? AND period_start >= ? AND period_start < ? ORDER BY period_start`,
		area, from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("error querying history: %w", err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		var start, end int64
		var tomorrow int
		if err := rows.Scan(&p.Area, &start, &end, &p.Price, &p.Correction, &p.Reason, &p.HotWater, &tomorrow); err != nil {
			return nil, fmt.Errorf("error scanning history: %w", err)
		}
		p.Start = time.Unix(start, 0).UTC()
		p.End = time.Unix(end, 0).UTC()
		p.IsTomorrow = tomorrow == 1
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
