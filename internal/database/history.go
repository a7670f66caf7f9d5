package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/phishscan/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "phishscan.db"

// storedTimeLayout is fixed width so that text ordering matches time ordering.
const storedTimeLayout = "2006-01-02 15:04:05.000000000"

// HistoryDB stores prediction results in SQLite.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		result_id TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL,
		label TEXT NOT NULL,
		probability REAL NOT NULL,
		source TEXT NOT NULL,
		model_version TEXT,
		reasons TEXT,
		features TEXT,
		scored_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_predictions_url ON predictions(url);
	CREATE INDEX IF NOT EXISTS idx_predictions_scored_at ON predictions(scored_at);
	CREATE INDEX IF NOT EXISTS idx_predictions_label ON predictions(label);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SavePrediction stores a single result.
func (hdb *HistoryDB) SavePrediction(ctx context.Context, result *model.PredictionResult) error {
	return insertPrediction(ctx, hdb.db, result)
}

// SavePredictions stores results in one transaction. Nil entries are skipped.
func (hdb *HistoryDB) SavePredictions(ctx context.Context, results []*model.PredictionResult) error {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		if err := insertPrediction(ctx, tx, r); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit predictions: %w", err)
	}
	return nil
}

func insertPrediction(ctx context.Context, ex execer, result *model.PredictionResult) error {
	reasonsJSON, err := json.Marshal(result.Reasons)
	if err != nil {
		return fmt.Errorf("failed to serialize reasons: %w", err)
	}
	featuresJSON, err := json.Marshal(result.FeatureScores)
	if err != nil {
		return fmt.Errorf("failed to serialize features: %w", err)
	}

	scoredAt := result.ScoredAt
	if scoredAt.IsZero() {
		scoredAt = time.Now()
	}

	query := `
	INSERT INTO predictions (result_id, url, label, probability, source, model_version, reasons, features, scored_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = ex.ExecContext(ctx, query,
		result.ID,
		result.URL,
		string(result.Label),
		result.Probability,
		string(result.Source),
		result.ModelVersion,
		string(reasonsJSON),
		string(featuresJSON),
		scoredAt.UTC().Format(storedTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT result_id, url, label, probability, source, model_version, reasons, features, scored_at
	FROM predictions
`

// History returns the stored results for url, newest first.
// A limit of zero or less returns every row.
func (hdb *HistoryDB) History(ctx context.Context, url string, limit int) ([]*model.PredictionResult, error) {
	query := selectColumns + `
	WHERE url = ?
	ORDER BY scored_at DESC, id DESC
	`
	args := []any{url}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// Recent returns the most recently stored results across all URLs.
func (hdb *HistoryDB) Recent(ctx context.Context, limit int) ([]*model.PredictionResult, error) {
	query := selectColumns + `
	ORDER BY scored_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent predictions: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// Latest returns the newest result for url, or nil when there is none.
func (hdb *HistoryDB) Latest(ctx context.Context, url string) (*model.PredictionResult, error) {
	results, err := hdb.History(ctx, url, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// LabelCounts returns the number of stored results per label.
func (hdb *HistoryDB) LabelCounts(ctx context.Context) (map[model.Label]int, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT label, COUNT(*) FROM predictions GROUP BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to count labels: %w", err)
	}
	defer rows.Close()

	counts := map[model.Label]int{
		model.LabelBenign:    0,
		model.LabelMalicious: 0,
	}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts[model.Label(label)] = n
	}
	return counts, rows.Err()
}

// ListURLs returns every URL with at least one stored result, sorted.
func (hdb *HistoryDB) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `SELECT DISTINCT url FROM predictions ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// VerdictChange compares the two newest results for a URL.
type VerdictChange struct {
	URL      string
	Current  *model.PredictionResult
	Previous *model.PredictionResult
}

// Changed reports whether the label differs between the two results.
// It is false when there is no previous result.
func (c *VerdictChange) Changed() bool {
	return c.Previous != nil && c.Current != nil && c.Previous.Label != c.Current.Label
}

// ProbabilityDelta returns current minus previous probability, or 0.
func (c *VerdictChange) ProbabilityDelta() float64 {
	if c.Previous == nil || c.Current == nil {
		return 0
	}
	return c.Current.Probability - c.Previous.Probability
}

// ErrNoHistory is returned when a URL has never been stored.
var ErrNoHistory = errors.New("no history for url")

// CompareLatest returns the newest and second newest results for url.
func (hdb *HistoryDB) CompareLatest(ctx context.Context, url string) (*VerdictChange, error) {
	results, err := hdb.History(ctx, url, 2)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHistory, url)
	}

	change := &VerdictChange{URL: url, Current: results[0]}
	if len(results) > 1 {
		change.Previous = results[1]
	}
	return change, nil
}

func scanPredictions(rows *sql.Rows) ([]*model.PredictionResult, error) {
	var results []*model.PredictionResult
	for rows.Next() {
		var (
			r            model.PredictionResult
			label        string
			source       string
			modelVersion sql.NullString
			reasonsJSON  sql.NullString
			featuresJSON sql.NullString
			scoredAt     string
		)
		if err := rows.Scan(&r.ID, &r.URL, &label, &r.Probability, &source,
			&modelVersion, &reasonsJSON, &featuresJSON, &scoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}

		r.Label = model.Label(label)
		r.Source = model.Source(source)
		r.ModelVersion = modelVersion.String
		r.ScoredAt = parseTimestamp(scoredAt)

		r.Reasons = []model.Reason{}
		if reasonsJSON.Valid && reasonsJSON.String != "" {
			if err := json.Unmarshal([]byte(reasonsJSON.String), &r.Reasons); err != nil {
				r.Reasons = []model.Reason{}
			}
		}
		if featuresJSON.Valid && featuresJSON.String != "" {
			if err := json.Unmarshal([]byte(featuresJSON.String), &r.FeatureScores); err != nil {
				r.FeatureScores = nil
			}
		}

		results = append(results, &r)
	}
	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with the first matching format, in UTC.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
