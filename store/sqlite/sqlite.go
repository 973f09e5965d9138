/*
Package sqlite provides a SQLite-backed implementation of ledger.Store.

PURPOSE:
  Persists the per-user document tree the way the hosted original stores
  it: one row per institution document (students/lessons/transactions as
  JSON columns, cash as an integer), one row per user profile owning the
  safe.

PARTIAL UPDATES:
  ApplyUpdate builds a single UPDATE statement naming only the changed
  columns. One logical ledger operation = one statement = one SQLite
  transaction; a concurrent reader never observes a balance zeroed with
  cash not yet credited.

SUBSCRIPTIONS:
  Snapshot listeners are in-process: every committed write re-reads the
  owner's institution list and fans it out. This mirrors the remote
  listener the original app relied on without promising cross-process
  delivery.

WAL MODE:
  Opened with WAL so readers don't block the single writer.

USAGE:
  store, err := sqlite.New("./data/studio.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/studio-ledger/ledger"
)

// Store implements ledger.Store on SQLite.
type Store struct {
	db *sql.DB

	mu           sync.Mutex
	listeners    map[string]map[int]func([]ledger.Institution)
	nextListener int
}

// New creates a store at dbPath. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{
		db:        db,
		listeners: make(map[string]map[int]func([]ledger.Institution)),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Institution documents, one row per studio
	CREATE TABLE IF NOT EXISTS institutions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		photo TEXT NOT NULL DEFAULT '',
		cash INTEGER NOT NULL DEFAULT 0,
		students_json TEXT NOT NULL DEFAULT '[]',
		lessons_json TEXT NOT NULL DEFAULT '[]',
		transactions_json TEXT NOT NULL DEFAULT '[]',
		resources_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_institutions_owner
		ON institutions(owner_id);

	-- User profiles, one row per owner; the safe lives here
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		photo TEXT NOT NULL DEFAULT '',
		safe_cash INTEGER NOT NULL DEFAULT 0,
		safe_transactions_json TEXT NOT NULL DEFAULT '[]',
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// INSTITUTIONS
// =============================================================================

func (s *Store) Institutions(ctx context.Context, ownerID string) ([]ledger.Institution, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, photo, cash, students_json, lessons_json, transactions_json, resources_json
		FROM institutions WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list institutions: %w", err)
	}
	defer rows.Close()

	var out []ledger.Institution
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (s *Store) GetInstitution(ctx context.Context, ownerID, id string) (*ledger.Institution, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, photo, cash, students_json, lessons_json, transactions_json, resources_json
		FROM institutions WHERE owner_id = ? AND id = ?`, ownerID, id)

	inst, err := scanInstitution(row)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrInstitutionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *Store) CreateInstitution(ctx context.Context, ownerID string, inst ledger.Institution) error {
	students, _ := json.Marshal(emptyIfNilStudents(inst.Students))
	lessons, _ := json.Marshal(emptyIfNilLessons(inst.Lessons))
	txs, _ := json.Marshal(emptyIfNilTxs(inst.Transactions))
	resources, _ := json.Marshal(emptyIfNilResources(inst.Resources))
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO institutions
		(id, owner_id, name, photo, cash, students_json, lessons_json, transactions_json, resources_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, ownerID, inst.Name, inst.Photo, inst.Cash,
		string(students), string(lessons), string(txs), string(resources), now, now)
	if err != nil {
		return fmt.Errorf("failed to create institution: %w", err)
	}

	s.notify(ctx, ownerID)
	return nil
}

// ApplyUpdate writes all named fields in one UPDATE statement.
func (s *Store) ApplyUpdate(ctx context.Context, ownerID, id string, u ledger.Update) error {
	if u.IsZero() {
		return nil
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if u.Students != nil {
		b, err := json.Marshal(u.Students)
		if err != nil {
			return fmt.Errorf("failed to encode students: %w", err)
		}
		sets = append(sets, "students_json = ?")
		args = append(args, string(b))
	}
	if u.Lessons != nil {
		b, err := json.Marshal(u.Lessons)
		if err != nil {
			return fmt.Errorf("failed to encode lessons: %w", err)
		}
		sets = append(sets, "lessons_json = ?")
		args = append(args, string(b))
	}
	if u.Transactions != nil {
		b, err := json.Marshal(u.Transactions)
		if err != nil {
			return fmt.Errorf("failed to encode transactions: %w", err)
		}
		sets = append(sets, "transactions_json = ?")
		args = append(args, string(b))
	}
	if u.Resources != nil {
		b, err := json.Marshal(u.Resources)
		if err != nil {
			return fmt.Errorf("failed to encode resources: %w", err)
		}
		sets = append(sets, "resources_json = ?")
		args = append(args, string(b))
	}
	if u.Cash != nil {
		sets = append(sets, "cash = ?")
		args = append(args, *u.Cash)
	}
	if u.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *u.Name)
	}
	if u.Photo != nil {
		sets = append(sets, "photo = ?")
		args = append(args, *u.Photo)
	}

	args = append(args, ownerID, id)
	query := "UPDATE institutions SET " + strings.Join(sets, ", ") + " WHERE owner_id = ? AND id = ?"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to apply update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrInstitutionNotFound
	}

	s.notify(ctx, ownerID)
	return nil
}

func (s *Store) DeleteInstitution(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM institutions WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete institution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrInstitutionNotFound
	}

	s.notify(ctx, ownerID)
	return nil
}

// =============================================================================
// PROFILES / SAFE
// =============================================================================

func (s *Store) Profile(ctx context.Context, ownerID string) (*ledger.Profile, error) {
	p, err := s.readProfile(ctx, ownerID)
	if err == sql.ErrNoRows {
		// First read bootstraps an empty profile: a user always has a safe.
		now := time.Now().UTC().Format(time.RFC3339)
		_, err = s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO profiles (user_id, updated_at) VALUES (?, ?)`, ownerID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to bootstrap profile: %w", err)
		}
		p, err = s.readProfile(ctx, ownerID)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) readProfile(ctx context.Context, ownerID string) (*ledger.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, photo, safe_cash, safe_transactions_json
		FROM profiles WHERE user_id = ?`, ownerID)

	var p ledger.Profile
	var txsJSON string
	if err := row.Scan(&p.UserID, &p.Name, &p.Photo, &p.Safe.Cash, &txsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(txsJSON), &p.Safe.Transactions); err != nil {
		return nil, fmt.Errorf("failed to decode safe transactions: %w", err)
	}
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, p ledger.Profile) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, photo, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET name = excluded.name, photo = excluded.photo, updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.Photo, now)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *Store) ApplySafeUpdate(ctx context.Context, ownerID string, u ledger.SafeUpdate) error {
	if u.Cash == nil && u.Transactions == nil {
		return nil
	}
	if _, err := s.Profile(ctx, ownerID); err != nil {
		return err
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC().Format(time.RFC3339)}

	if u.Cash != nil {
		sets = append(sets, "safe_cash = ?")
		args = append(args, *u.Cash)
	}
	if u.Transactions != nil {
		b, err := json.Marshal(u.Transactions)
		if err != nil {
			return fmt.Errorf("failed to encode safe transactions: %w", err)
		}
		sets = append(sets, "safe_transactions_json = ?")
		args = append(args, string(b))
	}

	args = append(args, ownerID)
	query := "UPDATE profiles SET " + strings.Join(sets, ", ") + " WHERE user_id = ?"
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to apply safe update: %w", err)
	}
	return nil
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func (s *Store) Subscribe(ownerID string, fn func([]ledger.Institution)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listeners[ownerID] == nil {
		s.listeners[ownerID] = make(map[int]func([]ledger.Institution))
	}
	id := s.nextListener
	s.nextListener++
	s.listeners[ownerID][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners[ownerID], id)
	}
}

func (s *Store) notify(ctx context.Context, ownerID string) {
	s.mu.Lock()
	fns := make([]func([]ledger.Institution), 0, len(s.listeners[ownerID]))
	for _, fn := range s.listeners[ownerID] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	docs, err := s.Institutions(ctx, ownerID)
	if err != nil {
		return
	}
	for _, fn := range fns {
		fn(docs)
	}
}

// =============================================================================
// SCANNING HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (ledger.Institution, error) {
	var inst ledger.Institution
	var students, lessons, txs, resources string

	err := row.Scan(&inst.ID, &inst.Name, &inst.Photo, &inst.Cash, &students, &lessons, &txs, &resources)
	if err != nil {
		return ledger.Institution{}, err
	}
	if err := json.Unmarshal([]byte(students), &inst.Students); err != nil {
		return ledger.Institution{}, fmt.Errorf("failed to decode students: %w", err)
	}
	if err := json.Unmarshal([]byte(lessons), &inst.Lessons); err != nil {
		return ledger.Institution{}, fmt.Errorf("failed to decode lessons: %w", err)
	}
	if err := json.Unmarshal([]byte(txs), &inst.Transactions); err != nil {
		return ledger.Institution{}, fmt.Errorf("failed to decode transactions: %w", err)
	}
	if err := json.Unmarshal([]byte(resources), &inst.Resources); err != nil {
		return ledger.Institution{}, fmt.Errorf("failed to decode resources: %w", err)
	}
	return inst, nil
}

func emptyIfNilStudents(v []ledger.Student) []ledger.Student {
	if v == nil {
		return []ledger.Student{}
	}
	return v
}

func emptyIfNilLessons(v []ledger.Lesson) []ledger.Lesson {
	if v == nil {
		return []ledger.Lesson{}
	}
	return v
}

func emptyIfNilTxs(v []ledger.Transaction) []ledger.Transaction {
	if v == nil {
		return []ledger.Transaction{}
	}
	return v
}

func emptyIfNilResources(v []ledger.Resource) []ledger.Resource {
	if v == nil {
		return []ledger.Resource{}
	}
	return v
}
