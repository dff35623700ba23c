//go:build !js

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"duel-lite/battle"
	"duel-lite/duel"
	"duel-lite/duel/curbstomp"
	"duel-lite/duel/resolve"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"

	queryTimeout = 3 * time.Second
	tablesKey    = "combat"
)

const (
	scopeGlobal    = "global"
	scopeCharacter = "character"
	scopeLocation  = "location"
)

// SQLStore serves content documents stored as JSON rows in sqlite or postgres.
type SQLStore struct {
	db      *sql.DB
	dialect string
}

// dialectSettings is the connection shape each backend is opened with.
type dialectSettings struct {
	driver      string
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	pragmas     []string
}

var dialects = map[string]dialectSettings{
	// sqlite: one connection, one writer.
	dialectSQLite: {
		driver:  "sqlite",
		maxOpen: 1,
		maxIdle: 1,
		pragmas: []string{`PRAGMA busy_timeout = 5000;`, `PRAGMA journal_mode = WAL;`},
	},
	dialectPostgres: {
		driver:      "postgres",
		maxOpen:     20,
		maxIdle:     10,
		maxLifetime: 30 * time.Minute,
	},
}

// NewSQLiteStore opens (and creates if needed) a sqlite content database.
func NewSQLiteStore(dbPath string) (*SQLStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create content dir: %w", err)
			}
		}
	}
	return dial(dialectSQLite, dbPath)
}

// NewPostgresStore connects to a postgres content database.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty postgres dsn")
	}
	return dial(dialectPostgres, dsn)
}

func dial(dialect, dsn string) (*SQLStore, error) {
	cfg := dialects[dialect]
	db, err := sql.Open(cfg.driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.maxOpen)
	db.SetMaxIdleConns(cfg.maxIdle)
	db.SetConnMaxLifetime(cfg.maxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range cfg.pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return openStore(ctx, db, dialect)
}

func openStore(ctx context.Context, db *sql.DB, dialect string) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureContentSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLStore{db: db, dialect: dialect}, nil
}

func ensureContentSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{`
CREATE TABLE IF NOT EXISTS duel_characters (
    id TEXT PRIMARY KEY,
    element TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS duel_locations (
    id TEXT PRIMARY KEY,
    body TEXT NOT NULL
)`, `
CREATE TABLE IF NOT EXISTS duel_curbstomp_rules (
    scope TEXT NOT NULL,
    scope_key TEXT NOT NULL,
    id TEXT NOT NULL,
    position INTEGER NOT NULL,
    body TEXT NOT NULL,
    PRIMARY KEY (scope, scope_key, id)
)`, `
CREATE TABLE IF NOT EXISTS duel_tables (
    name TEXT PRIMARY KEY,
    body TEXT NOT NULL
)`} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ph returns the n-th placeholder for the store's dialect.
func (s *SQLStore) ph(n int) string {
	if s.dialect == dialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, queryTimeout)
}

func (s *SQLStore) Character(ctx context.Context, id string) (*duel.CharacterTemplate, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM duel_characters WHERE id = `+s.ph(1), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", duel.ErrUnknownCharacter, id)
	}
	if err != nil {
		return nil, err
	}
	var t duel.CharacterTemplate
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, fmt.Errorf("decode character %s: %w", id, err)
	}
	return &t, nil
}

// Characters loads several templates at once. Unknown ids are skipped.
func (s *SQLStore) Characters(ctx context.Context, ids []string) ([]*duel.CharacterTemplate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if s.dialect == dialectPostgres {
		rows, err = s.db.QueryContext(ctx, `SELECT body FROM duel_characters WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	} else {
		marks := make([]string, len(ids))
		args := make([]any, len(ids))
		for i, id := range ids {
			marks[i] = "?"
			args[i] = id
		}
		rows, err = s.db.QueryContext(ctx, `SELECT body FROM duel_characters WHERE id IN (`+strings.Join(marks, ",")+`) ORDER BY id`, args...)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*duel.CharacterTemplate
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var t duel.CharacterTemplate
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("decode character: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *SQLStore) Location(ctx context.Context, id string) (*duel.Location, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM duel_locations WHERE id = `+s.ph(1), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", duel.ErrUnknownLocation, id)
	}
	if err != nil {
		return nil, err
	}
	var l duel.Location
	if err := json.Unmarshal([]byte(body), &l); err != nil {
		return nil, fmt.Errorf("decode location %s: %w", id, err)
	}
	return &l, nil
}

func (s *SQLStore) RuleSet(ctx context.Context) (*curbstomp.RuleSet, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT scope, scope_key, body FROM duel_curbstomp_rules ORDER BY scope, scope_key, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs := &curbstomp.RuleSet{
		ByCharacter: make(map[string][]curbstomp.Rule),
		ByLocation:  make(map[string][]curbstomp.Rule),
	}
	for rows.Next() {
		var scope, key, body string
		if err := rows.Scan(&scope, &key, &body); err != nil {
			return nil, err
		}
		var r curbstomp.Rule
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode curbstomp rule: %w", err)
		}
		switch scope {
		case scopeCharacter:
			rs.ByCharacter[key] = append(rs.ByCharacter[key], r)
		case scopeLocation:
			rs.ByLocation[key] = append(rs.ByLocation[key], r)
		default:
			rs.Global = append(rs.Global, r)
		}
	}
	return rs, rows.Err()
}

func (s *SQLStore) Tables(ctx context.Context) (resolve.Tables, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var t resolve.Tables
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM duel_tables WHERE name = `+s.ph(1), tablesKey).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return t, fmt.Errorf("decode combat tables: %w", err)
	}
	return t, nil
}

type ruleScope struct {
	scope string
	key   string
	rules []curbstomp.Rule
}

// Import upserts a whole document in one transaction. Rules of a scope key
// present in doc replace the stored ones for that key.
func (s *SQLStore) Import(ctx context.Context, doc Document) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range doc.Characters {
		if err := c.Validate(); err != nil {
			return err
		}
		body, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO duel_characters (id, element, body) VALUES (`+s.ph(1)+`, `+s.ph(2)+`, `+s.ph(3)+`)
ON CONFLICT (id) DO UPDATE SET element = excluded.element, body = excluded.body`,
			c.ID, string(c.Element), string(body)); err != nil {
			return fmt.Errorf("store character %s: %w", c.ID, err)
		}
	}
	for _, l := range doc.Locations {
		if l == nil || l.ID == "" {
			return duel.InvalidContentError("location without id")
		}
		body, err := json.Marshal(l)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO duel_locations (id, body) VALUES (`+s.ph(1)+`, `+s.ph(2)+`)
ON CONFLICT (id) DO UPDATE SET body = excluded.body`,
			l.ID, string(body)); err != nil {
			return fmt.Errorf("store location %s: %w", l.ID, err)
		}
	}

	var scoped []ruleScope
	if len(doc.Rules.Global) > 0 {
		scoped = append(scoped, ruleScope{scopeGlobal, "", doc.Rules.Global})
	}
	for _, k := range duel.SortedKeys(doc.Rules.ByCharacter) {
		scoped = append(scoped, ruleScope{scopeCharacter, k, doc.Rules.ByCharacter[k]})
	}
	for _, k := range duel.SortedKeys(doc.Rules.ByLocation) {
		scoped = append(scoped, ruleScope{scopeLocation, k, doc.Rules.ByLocation[k]})
	}
	for _, sc := range scoped {
		if _, err := tx.ExecContext(ctx, `DELETE FROM duel_curbstomp_rules WHERE scope = `+s.ph(1)+` AND scope_key = `+s.ph(2), sc.scope, sc.key); err != nil {
			return err
		}
		for i, r := range sc.rules {
			if err := r.Validate(); err != nil {
				return err
			}
			body, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO duel_curbstomp_rules (scope, scope_key, id, position, body) VALUES (`+s.ph(1)+`, `+s.ph(2)+`, `+s.ph(3)+`, `+s.ph(4)+`, `+s.ph(5)+`)`,
				sc.scope, sc.key, r.ID, i, string(body)); err != nil {
				return fmt.Errorf("store curbstomp rule %s: %w", r.ID, err)
			}
		}
	}

	if len(doc.Tables.Punishable) > 0 || len(doc.Tables.Intercepts) > 0 {
		body, err := json.Marshal(doc.Tables)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO duel_tables (name, body) VALUES (`+s.ph(1)+`, `+s.ph(2)+`)
ON CONFLICT (name) DO UPDATE SET body = excluded.body`,
			tablesKey, string(body)); err != nil {
			return fmt.Errorf("store combat tables: %w", err)
		}
	}
	return tx.Commit()
}

// CharacterIDsByElement lists stored characters of one element.
func (s *SQLStore) CharacterIDsByElement(ctx context.Context, e duel.Element) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM duel_characters WHERE element = `+s.ph(1)+` ORDER BY id`, string(e))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// openSQL opens the store for mode, seeds it when asked and fronts it with a
// cache.
func openSQL(ctx context.Context, mode string, opts Options) (battle.Source, func() error, error) {
	var (
		store *SQLStore
		err   error
	)
	if mode == ModeSQLite {
		store, err = NewSQLiteStore(opts.SQLitePath)
	} else {
		store, err = NewPostgresStore(opts.DSN)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s catalog: %w", mode, err)
	}
	if opts.Seed {
		reg, err := defaultsWithFiles(opts.Files)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		if err := store.Import(ctx, reg.Document()); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("seed %s catalog: %w", mode, err)
		}
	}
	cached, err := NewCached(store, opts.CacheSize)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return cached, store.Close, nil
}
