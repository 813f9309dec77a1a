package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteSink persists audit records to a SQLite database. It is the
// production sink for single-node deployments.
type SQLiteSink struct {
	db *sql.DB

	writeStmt *sql.Stmt
	pruneStmt *sql.Stmt
}

// SQLiteSinkConfig contains configuration for the SQLite sink.
type SQLiteSinkConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteSink opens (and if necessary creates) the audit database.
func NewSQLiteSink(cfg SQLiteSinkConfig) (*SQLiteSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("audit db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteSink{db: db}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare audit statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteSink) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_records (
		id TEXT NOT NULL PRIMARY KEY,
		op TEXT NOT NULL,
		policy_name TEXT NOT NULL,
		detail TEXT,
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_records(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_policy ON audit_records(policy_name);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteSink) prepareStatements() error {
	var err error

	s.writeStmt, err = s.db.Prepare(`
		INSERT INTO audit_records (id, op, policy_name, detail, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare write statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM audit_records WHERE timestamp < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Write persists one record.
func (s *SQLiteSink) Write(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	_, err := s.writeStmt.ExecContext(ctx,
		rec.ID, rec.Op, strings.ToLower(rec.PolicyName), rec.Detail, rec.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// List returns records matching the filter, newest first.
func (s *SQLiteSink) List(ctx context.Context, f Filter) ([]*Record, error) {
	query := `
		SELECT id, op, policy_name, detail, timestamp
		FROM audit_records
	`
	var (
		conds []string
		args  []any
	)
	if f.Op != "" {
		conds = append(conds, "op = ?")
		args = append(args, f.Op)
	}
	if f.PolicyName != "" {
		conds = append(conds, "policy_name = ?")
		args = append(args, strings.ToLower(f.PolicyName))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		var (
			rec Record
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Op, &rec.PolicyName, &rec.Detail, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts).UTC()
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return records, nil
}

// Prune deletes records older than the cutoff.
func (s *SQLiteSink) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.pruneStmt.ExecContext(ctx, olderThan.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check prune result: %w", err)
	}
	return deleted, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteSink) Close() error {
	if s.writeStmt != nil {
		s.writeStmt.Close()
	}
	if s.pruneStmt != nil {
		s.pruneStmt.Close()
	}
	return s.db.Close()
}
