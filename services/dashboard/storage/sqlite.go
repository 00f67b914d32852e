package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iulianpascalau/healthvital-monitoring/services/dashboard/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const inMemoryPath = ":memory:"

var log = logger.GetOrCreate("storage")

// ErrInvalidLimit signals a non-positive number of requested rows
var ErrInvalidLimit = errors.New("invalid limit")

// sqliteJournal keeps every alert raised during the session
type sqliteJournal struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
	closeOnce        sync.Once
	closeErr         error
}

// NewSQLiteJournal creates the database, schema, and starts the retention cleaner. A retention of 0 keeps
// everything until the journal is closed.
func NewSQLiteJournal(dbPath string, retentionSeconds int) (*sqliteJournal, error) {
	if retentionSeconds < 0 {
		return nil, fmt.Errorf("invalid retention: %d seconds", retentionSeconds)
	}
	if dbPath == "" {
		dbPath = inMemoryPath
	}

	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create the journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every connection to :memory: would open a distinct database
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &sqliteJournal{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	if retentionSeconds > 0 {
		j.startRetentionCleaner(ctx)
	}

	return j, nil
}

func prepareDirectories(dbPath string) error {
	if dbPath == inMemoryPath {
		return nil
	}

	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id        TEXT    NOT NULL PRIMARY KEY,
		tick      INTEGER NOT NULL,
		rule      TEXT    NOT NULL,
		severity  TEXT    NOT NULL,
		message   TEXT    NOT NULL,
		raised_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_raised_at ON alerts(raised_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveAlerts stores the alerts raised by one tick. Alerts already journaled are ignored.
func (j *sqliteJournal) SaveAlerts(ctx context.Context, tick uint64, events []common.AlertEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, event := range events {
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO alerts (id, tick, rule, severity, message, raised_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, event.ID, int64(tick), event.Rule, string(event.Severity), event.Message, event.Timestamp.UnixNano())
		if err != nil {
			return fmt.Errorf("failed to insert alert %s: %w", event.ID, err)
		}
	}

	return tx.Commit()
}

// GetAlerts returns up to limit journaled alerts, newest first
func (j *sqliteJournal) GetAlerts(ctx context.Context, limit int) ([]common.JournalEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, tick, rule, severity, message, raised_at
		FROM alerts
		ORDER BY raised_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.JournalEntry, 0, limit)
	for rows.Next() {
		var entry common.JournalEntry
		var tick int64
		var severity string
		var raisedAt int64

		err = rows.Scan(&entry.ID, &tick, &entry.Rule, &severity, &entry.Message, &raisedAt)
		if err != nil {
			return nil, err
		}

		entry.Tick = uint64(tick)
		entry.Severity = common.Severity(severity)
		entry.Timestamp = time.Unix(0, raisedAt).UTC()
		results = append(results, entry)
	}

	return results, rows.Err()
}

// CountAlerts returns the number of journaled alerts
func (j *sqliteJournal) CountAlerts(ctx context.Context) (int, error) {
	var count int
	err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alerts").Scan(&count)

	return count, err
}

func (j *sqliteJournal) cleanRetainedAlerts(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-time.Duration(j.retentionSeconds) * time.Second).UnixNano()
	result, err := j.db.ExecContext(ctx, "DELETE FROM alerts WHERE raised_at < ?", cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (j *sqliteJournal) startRetentionCleaner(ctx context.Context) {
	j.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := max(j.retentionSeconds/10, 60)
	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer j.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := j.cleanRetainedAlerts(ctx, time.Now())
				if err != nil {
					log.Warn("failed to cleanup retained alerts", "error", err)
					continue
				}

				log.Debug("journal retention cleanup", "removed", removed)
			}
		}
	}()
}

// Close stops the retention cleaner and closes the database. Subsequent calls return the first result.
func (j *sqliteJournal) Close() error {
	j.closeOnce.Do(func() {
		j.cancelFunc()
		j.wg.Wait()
		j.closeErr = j.db.Close()
	})

	return j.closeErr
}

// IsInterfaceNil returns true if the value under the interface is nil
func (j *sqliteJournal) IsInterfaceNil() bool {
	return j == nil
}
