package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically and is understood by SQLite's date functions.
const timeLayout = "2006-01-02 15:04:05"

func ts(t time.Time) string { return t.UTC().Format(timeLayout) }

// Store persists visits in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			visitor_id TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			referrer TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_doc_time ON visits(document_id, timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting returns the value for key, or "" when unset.
func (s *Store) GetSetting(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveVisit stores a human view.
func (s *Store) SaveVisit(ctx context.Context, v *Visit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visits (document_id, visitor_id, browser, os, device, referrer, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.DocumentID, v.VisitorID, v.Browser, v.OS, v.Device, v.Referrer, ts(v.Timestamp))
	return err
}

// SaveBotVisit stores a crawler fetch.
func (s *Store) SaveBotVisit(ctx context.Context, b *BotVisit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_visits (document_id, bot_name, ip_hash, timestamp) VALUES (?, ?, ?, ?)`,
		b.DocumentID, b.BotName, b.IPHash, ts(b.Timestamp))
	return err
}

// CountViews returns the number of human views of documentID in [from, to).
func (s *Store) CountViews(ctx context.Context, documentID string, from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM visits WHERE document_id = ? AND timestamp >= ? AND timestamp < ?`,
		documentID, ts(from), ts(to)).Scan(&n)
	return n, err
}

// TopDocuments returns the most viewed documents in [from, to).
func (s *Store) TopDocuments(ctx context.Context, from, to time.Time, limit int) ([]DocumentStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, COUNT(*) AS views FROM visits
		 WHERE timestamp >= ? AND timestamp < ?
		 GROUP BY document_id ORDER BY views DESC, document_id LIMIT ?`,
		ts(from), ts(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DocumentStat{}
	for rows.Next() {
		var d DocumentStat
		if err := rows.Scan(&d.DocumentID, &d.Views); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ViewCounts returns all-time human view counts keyed by document id.
func (s *Store) ViewCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document_id, COUNT(*) FROM visits GROUP BY document_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// scope restricts a query to one document unless documentID is empty.
const scope = `(? = '' OR document_id = ?) AND timestamp >= ? AND timestamp < ?`

func scopeArgs(documentID string, from, to time.Time) []any {
	return []any{documentID, documentID, ts(from), ts(to)}
}

func (s *Store) dimension(ctx context.Context, column, documentID string, from, to time.Time) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) AS n FROM visits WHERE `+scope+` GROUP BY `+column+` ORDER BY n DESC, `+column+` LIMIT 10`,
		scopeArgs(documentID, from, to)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) series(ctx context.Context, format, documentID string, from, to time.Time) ([]DailyView, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT strftime('`+format+`', timestamp) AS bucket, COUNT(*) FROM visits WHERE `+scope+` GROUP BY bucket ORDER BY bucket`,
		scopeArgs(documentID, from, to)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DailyView{}
	for rows.Next() {
		var d DailyView
		if err := rows.Scan(&d.Date, &d.Views); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetStats aggregates views in [from, to). An empty documentID covers
// every document. Hourly buckets the series by hour instead of day.
func (s *Store) GetStats(ctx context.Context, documentID string, from, to time.Time, hourly bool) (*Stats, error) {
	stats := &Stats{
		Period:     from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		DocumentID: documentID,
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}
	args := scopeArgs(documentID, from, to)

	run("total views", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits WHERE `+scope, args...).Scan(&stats.TotalViews)
	})
	run("unique visitors", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE `+scope, args...).Scan(&stats.UniqueVisitors)
	})
	run("bot visits", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bot_visits WHERE `+scope, args...).Scan(&stats.BotVisits)
	})
	run("top documents", func() (err error) {
		stats.TopDocuments, err = s.TopDocuments(ctx, from, to, 10)
		return err
	})
	run("browsers", func() (err error) {
		stats.Browsers, err = s.dimension(ctx, "browser", documentID, from, to)
		return err
	})
	run("devices", func() (err error) {
		stats.Devices, err = s.dimension(ctx, "device", documentID, from, to)
		return err
	})
	run("referrers", func() (err error) {
		stats.Referrers, err = s.dimension(ctx, "referrer", documentID, from, to)
		return err
	})
	run("series", func() (err error) {
		format := "%Y-%m-%d"
		if hourly {
			format = "%H:00"
		}
		stats.DailyViews, err = s.series(ctx, format, documentID, from, to)
		return err
	})

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// DeleteDocument drops every visit recorded for documentID.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM visits WHERE document_id = ?`, documentID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM bot_visits WHERE document_id = ?`, documentID)
	return err
}

// CleanupOldVisits removes visits older than retentionDays.
func (s *Store) CleanupOldVisits(retentionDays int) error {
	cutoff := ts(time.Now().AddDate(0, 0, -retentionDays))
	if _, err := s.db.Exec(`DELETE FROM visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup visits: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM bot_visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup bot_visits: %w", err)
	}
	return nil
}

// StartCleanupScheduler runs CleanupOldVisits every interval until the
// returned stop function is called.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, log *zap.Logger) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.CleanupOldVisits(retentionDays); err != nil {
					log.Error("analytics cleanup failed", zap.Error(err))
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
