package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"citadel-sec/citadel/pkg/policy"
)

// SQLiteStore implements policy.Store using SQLite for persistence. It is
// suitable for single-instance deployments where policies must survive
// restarts.
//
// The store uses a write-ahead log (WAL) for better concurrent performance
// and keeps the canonical lower-cased name as the primary key so lookups
// and prefix searches are case-insensitive.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex

	// preparedStatements contains pre-compiled SQL statements for reuse
	namesStmt  *sql.Stmt
	getStmt    *sql.Stmt
	createStmt *sql.Stmt
	updateStmt *sql.Stmt
	removeStmt *sql.Stmt
	findStmt   *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig creates a new SQLite store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS password_policies (
		name_key TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		check_quality INTEGER,
		max_age INTEGER,
		min_age INTEGER,
		min_length INTEGER,
		failure_count_interval INTEGER,
		max_failure INTEGER,
		in_history INTEGER,
		grace_login_limit INTEGER,
		lockout_duration INTEGER,
		expire_warning INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.namesStmt, err = s.db.Prepare(`
		SELECT name FROM password_policies ORDER BY name_key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare names statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT name, check_quality, max_age, min_age, min_length,
			failure_count_interval, max_failure, in_history,
			grace_login_limit, lockout_duration, expire_warning
		FROM password_policies
		WHERE name_key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.createStmt, err = s.db.Prepare(`
		INSERT INTO password_policies (
			name_key, name, check_quality, max_age, min_age, min_length,
			failure_count_interval, max_failure, in_history,
			grace_login_limit, lockout_duration, expire_warning,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare create statement: %w", err)
	}

	// COALESCE keeps the stored value for every attribute passed as NULL,
	// so updates only touch the non-nil attributes of the record.
	s.updateStmt, err = s.db.Prepare(`
		UPDATE password_policies SET
			check_quality = COALESCE(?, check_quality),
			max_age = COALESCE(?, max_age),
			min_age = COALESCE(?, min_age),
			min_length = COALESCE(?, min_length),
			failure_count_interval = COALESCE(?, failure_count_interval),
			max_failure = COALESCE(?, max_failure),
			in_history = COALESCE(?, in_history),
			grace_login_limit = COALESCE(?, grace_login_limit),
			lockout_duration = COALESCE(?, lockout_duration),
			expire_warning = COALESCE(?, expire_warning),
			updated_at = ?
		WHERE name_key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}

	s.removeStmt, err = s.db.Prepare(`
		DELETE FROM password_policies WHERE name_key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare remove statement: %w", err)
	}

	s.findStmt, err = s.db.Prepare(`
		SELECT name, check_quality, max_age, min_age, min_length,
			failure_count_interval, max_failure, in_history,
			grace_login_limit, lockout_duration, expire_warning
		FROM password_policies
		WHERE name_key LIKE ? ESCAPE '\'
		ORDER BY name_key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare find statement: %w", err)
	}

	return nil
}

// PolicyNames returns the names of all stored policies, sorted.
func (s *SQLiteStore) PolicyNames(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.namesStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan policy name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate policy names: %w", err)
	}
	return names, nil
}

// Get returns the named policy.
func (s *SQLiteStore) Get(ctx context.Context, name string) (*policy.PasswordPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.getStmt.QueryRowContext(ctx, policy.CanonicalName(name))
	p, err := scanPolicy(row)
	if err == sql.ErrNoRows {
		return nil, &policy.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read policy: %w", err)
	}
	return p, nil
}

// Create adds a new policy.
func (s *SQLiteStore) Create(ctx context.Context, p *policy.PasswordPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	_, err := s.createStmt.ExecContext(ctx,
		policy.CanonicalName(p.Name), p.Name,
		p.CheckQuality, p.MaxAge, p.MinAge, p.MinLength,
		p.FailureCountInterval, p.MaxFailure, p.InHistory,
		p.GraceLoginLimit, p.LockoutDuration, p.ExpireWarning,
		now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &policy.AlreadyExistsError{Name: p.Name}
		}
		return fmt.Errorf("failed to create policy: %w", err)
	}
	return nil
}

// Update merges the non-nil attributes of p into the stored record.
func (s *SQLiteStore) Update(ctx context.Context, p *policy.PasswordPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.updateStmt.ExecContext(ctx,
		p.CheckQuality, p.MaxAge, p.MinAge, p.MinLength,
		p.FailureCountInterval, p.MaxFailure, p.InHistory,
		p.GraceLoginLimit, p.LockoutDuration, p.ExpireWarning,
		time.Now().Unix(), policy.CanonicalName(p.Name),
	)
	if err != nil {
		return fmt.Errorf("failed to update policy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return &policy.NotFoundError{Name: p.Name}
	}
	return nil
}

// Remove deletes the policy named by p.
func (s *SQLiteStore) Remove(ctx context.Context, p *policy.PasswordPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.removeStmt.ExecContext(ctx, policy.CanonicalName(p.Name))
	if err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check remove result: %w", err)
	}
	if affected == 0 {
		return &policy.NotFoundError{Name: p.Name}
	}
	return nil
}

// FindByPrefix returns every policy whose name starts with prefix,
// case-insensitively, sorted by name.
func (s *SQLiteStore) FindByPrefix(ctx context.Context, prefix string) ([]*policy.PasswordPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.findStmt.QueryContext(ctx, escapeLike(policy.CanonicalName(prefix))+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search policies: %w", err)
	}
	defer rows.Close()

	matches := []*policy.PasswordPolicy{}
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		matches = append(matches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate policies: %w", err)
	}
	return matches, nil
}

// Close closes the prepared statements and the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []*sql.Stmt{
		s.namesStmt, s.getStmt, s.createStmt, s.updateStmt, s.removeStmt, s.findStmt,
	} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// scanTarget is satisfied by both *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

// scanPolicy reads one policy row into a record, mapping NULL columns to
// nil attributes.
func scanPolicy(row scanTarget) (*policy.PasswordPolicy, error) {
	var (
		p    policy.PasswordPolicy
		cols [10]sql.NullInt64
	)
	err := row.Scan(&p.Name,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
		&cols[5], &cols[6], &cols[7], &cols[8], &cols[9],
	)
	if err != nil {
		return nil, err
	}

	fields := []**int{
		&p.CheckQuality, &p.MaxAge, &p.MinAge, &p.MinLength,
		&p.FailureCountInterval, &p.MaxFailure, &p.InHistory,
		&p.GraceLoginLimit, &p.LockoutDuration, &p.ExpireWarning,
	}
	for i, col := range cols {
		if col.Valid {
			v := int(col.Int64)
			*fields[i] = &v
		}
	}
	return &p, nil
}

// escapeLike escapes LIKE metacharacters in a prefix so user input cannot
// widen the match.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
