// Package refstore persists the company reference data and the match
// audit trail in a local sqlite database.
package refstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"sigmatch/internal/services"
	"sigmatch/internal/textutil"
)

const defaultSearchLimit = 5

// Company is one reference record mirrored from the CRM.
type Company struct {
	CRMID  string
	Name   string
	Domain string
}

// SearchHit pairs a company with its similarity to the searched name.
type SearchHit struct {
	Company    Company
	Similarity float64
}

// AuditEntry records one association attempt for a signal.
type AuditEntry struct {
	SignalID   string
	CompanyID  string
	Kind       string
	Confidence float64
	Created    bool
	RequestID  string
	CreatedAt  time.Time
}

// Store wraps the sqlite database. A file lock guards against concurrent
// processes opening the same database.
type Store struct {
	db          *sql.DB
	lock        *flock.Flock
	searchLimit int
}

// Open opens (creating if necessary) the database at path.
func Open(ctx context.Context, path string, searchLimit int) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "refstore", "open", "store path required", nil)
	}
	if searchLimit <= 0 {
		searchLimit = defaultSearchLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "refstore", "open", "store is locked by another process", nil)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := &Store{db: db, lock: lock, searchLimit: searchLimit}
	if err := store.init(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

func (s *Store) init(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			crm_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_name ON companies(name)`,
		`CREATE TABLE IF NOT EXISTS match_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id TEXT NOT NULL,
			company_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			confidence REAL NOT NULL,
			created INTEGER NOT NULL,
			request_id TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_signal ON match_history(signal_id)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// Close releases the database and its file lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// SearchByName finds companies whose name or domain contains the query,
// scored by similarity and sorted best first. Results are capped at the
// configured search limit.
func (s *Store) SearchByName(ctx context.Context, name string) ([]SearchHit, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, nil
	}
	pattern := "%" + textutil.EscapeLike(trimmed) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT crm_id, name, domain FROM companies
		WHERE name LIKE ? ESCAPE '\' COLLATE NOCASE
		   OR domain LIKE ? ESCAPE '\' COLLATE NOCASE
		ORDER BY name
		LIMIT ?`, pattern, pattern, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	defer rows.Close()

	queryKey := textutil.NormalizeName(trimmed)
	var hits []SearchHit
	for rows.Next() {
		var company Company
		if err := rows.Scan(&company.CRMID, &company.Name, &company.Domain); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		hits = append(hits, SearchHit{
			Company:    company,
			Similarity: similarity(queryKey, company),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	return hits, nil
}

// similarity scores a hit against the normalized query: exact 1.0,
// containment either direction 0.9, 0.8 floor for any LIKE hit.
func similarity(queryKey string, company Company) float64 {
	nameKey := textutil.NormalizeName(company.Name)
	domainKey := textutil.NormalizeName(company.Domain)
	if queryKey == nameKey || (domainKey != "" && queryKey == domainKey) {
		return 1.0
	}
	if strings.Contains(nameKey, queryKey) || strings.Contains(queryKey, nameKey) {
		return 0.9
	}
	if domainKey != "" && (strings.Contains(domainKey, queryKey) || strings.Contains(queryKey, domainKey)) {
		return 0.9
	}
	return 0.8
}

// UpsertCompany inserts or refreshes one reference record.
func (s *Store) UpsertCompany(ctx context.Context, company Company) error {
	company.CRMID = strings.TrimSpace(company.CRMID)
	company.Name = strings.TrimSpace(company.Name)
	if company.CRMID == "" || company.Name == "" {
		return services.Wrap(services.ErrValidation, "refstore", "upsert", "crm id and name required", nil)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (crm_id, name, domain, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(crm_id) DO UPDATE SET
			name = excluded.name,
			domain = excluded.domain,
			updated_at = excluded.updated_at`,
		company.CRMID, company.Name, strings.TrimSpace(company.Domain),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", company.CRMID, err)
	}
	return nil
}

// CompanyCount returns the number of reference records.
func (s *Store) CompanyCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies").Scan(&count); err != nil {
		return 0, fmt.Errorf("count companies: %w", err)
	}
	return count, nil
}

// LogMatch appends one audit entry.
func (s *Store) LogMatch(ctx context.Context, entry AuditEntry) error {
	if strings.TrimSpace(entry.SignalID) == "" || strings.TrimSpace(entry.CompanyID) == "" {
		return services.Wrap(services.ErrValidation, "refstore", "log match", "signal and company ids required", nil)
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	created := 0
	if entry.Created {
		created = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO match_history (signal_id, company_id, kind, confidence, created, request_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.SignalID, entry.CompanyID, entry.Kind, entry.Confidence,
		created, entry.RequestID, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("log match for signal %s: %w", entry.SignalID, err)
	}
	return nil
}

// AuditBySignal returns the audit trail for one signal, oldest first.
func (s *Store) AuditBySignal(ctx context.Context, signalID string) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signal_id, company_id, kind, confidence, created, request_id, created_at
		FROM match_history WHERE signal_id = ? ORDER BY id`, signalID)
	if err != nil {
		return nil, fmt.Errorf("load audit for signal %s: %w", signalID, err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var created int
		var createdAt string
		if err := rows.Scan(&entry.SignalID, &entry.CompanyID, &entry.Kind,
			&entry.Confidence, &created, &entry.RequestID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Created = created != 0
		if parsed, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load audit for signal %s: %w", signalID, err)
	}
	return entries, nil
}
