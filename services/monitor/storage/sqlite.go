package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("storage")

const minCleanupIntervalInSeconds = 60

// sqliteStorage is the sqlite implementation for the incident snapshots storage
type sqliteStorage struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteStorage creates the database, schema, and starts the retention cleaner
func NewSQLiteStorage(dbPath string, retentionSeconds int) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// every new connection to :memory: would open a different database
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteStorage{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		perspective TEXT    NOT NULL PRIMARY KEY,
		recorded_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS incidents (
		perspective     TEXT    NOT NULL REFERENCES snapshots(perspective) ON DELETE CASCADE,
		correlation_key TEXT    NOT NULL,
		component       TEXT    NOT NULL,
		severity        TEXT    NOT NULL,
		alert_name      TEXT    NOT NULL,
		namespace       TEXT    NOT NULL,
		layer           TEXT    NOT NULL,
		rank            INTEGER NOT NULL,
		informative     INTEGER NOT NULL,
		long_standing   INTEGER NOT NULL,
		inactive        INTEGER NOT NULL,
		samples         TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_perspective ON incidents(perspective);
	CREATE INDEX IF NOT EXISTS idx_snapshots_recorded_at ON snapshots(recorded_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveIncidents replaces the incident snapshot of the perspective
func (s *sqliteStorage) SaveIncidents(ctx context.Context, perspective string, incidents []common.Incident, recordedAt int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, "DELETE FROM incidents WHERE perspective = ?", perspective)
	if err != nil {
		return fmt.Errorf("failed to delete previous snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (perspective, recorded_at)
		VALUES (?, ?)
		ON CONFLICT(perspective) DO UPDATE SET recorded_at=excluded.recorded_at
	`, perspective, recordedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	for _, incident := range incidents {
		samples, errMarshal := json.Marshal(incident.Samples)
		if errMarshal != nil {
			return fmt.Errorf("failed to marshal samples of %s: %w", incident.CorrelationKey, errMarshal)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO incidents (perspective, correlation_key, component, severity, alert_name, namespace, layer,
				rank, informative, long_standing, inactive, samples)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, perspective, incident.CorrelationKey, incident.Component, incident.Severity, incident.AlertName,
			incident.Namespace, incident.Layer, incident.Rank, incident.Informative, incident.LongStanding,
			incident.Inactive, string(samples))
		if err != nil {
			return fmt.Errorf("failed to insert incident: %w", err)
		}
	}

	return tx.Commit()
}

// GetIncidents returns the last snapshot of the perspective ordered by descending rank.
// The returned timestamp is 0 when no snapshot exists.
func (s *sqliteStorage) GetIncidents(ctx context.Context, perspective string) ([]common.Incident, int64, error) {
	var recordedAt int64
	err := s.db.QueryRowContext(ctx, "SELECT recorded_at FROM snapshots WHERE perspective = ?", perspective).Scan(&recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return make([]common.Incident, 0), 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT correlation_key, component, severity, alert_name, namespace, layer,
			rank, informative, long_standing, inactive, samples
		FROM incidents
		WHERE perspective = ?
		ORDER BY rank DESC
	`, perspective)
	if err != nil {
		return nil, 0, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]common.Incident, 0)
	for rows.Next() {
		var incident common.Incident
		var samples string

		err = rows.Scan(&incident.CorrelationKey, &incident.Component, &incident.Severity, &incident.AlertName,
			&incident.Namespace, &incident.Layer, &incident.Rank, &incident.Informative, &incident.LongStanding,
			&incident.Inactive, &samples)
		if err != nil {
			return nil, 0, err
		}

		err = json.Unmarshal([]byte(samples), &incident.Samples)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal samples of %s: %w", incident.CorrelationKey, err)
		}

		results = append(results, incident)
	}

	return results, recordedAt, rows.Err()
}

// cleanRetainedSnapshots executes the retention cleanup query synchronously
func (s *sqliteStorage) cleanRetainedSnapshots(ctx context.Context) error {
	cutoff := time.Now().Unix() - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE recorded_at < ?", cutoff)
	return err
}

func (s *sqliteStorage) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < minCleanupIntervalInSeconds {
		intervalSec = minCleanupIntervalInSeconds
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedSnapshots(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained snapshots", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteStorage) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}
