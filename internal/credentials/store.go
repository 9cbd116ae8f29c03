package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Store handles queries to the SQLite credential database. It replaces the
// hosted key-value table the original deployment used, keyed by service name
// with at most one row per service.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Credential is one stored service credential. AdditionalKeys carries
// auxiliary named keys, e.g. the generation provider's API key.
type Credential struct {
	ServiceName    string            `json:"service_name"`
	APIKey         string            `json:"api_key"`
	AdditionalKeys map[string]string `json:"additional_keys"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// NewStore opens (or creates) the credential database
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, logger: logger}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// initSchema creates the credential table if it doesn't exist
func (s *Store) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS api_credentials (
			service_name TEXT PRIMARY KEY,
			api_key TEXT NOT NULL,
			additional_keys TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`

	_, err := s.db.Exec(query)
	return err
}

// Get retrieves the credential row for a service. A missing row returns
// (nil, nil): absence is a normal condition, not an error.
func (s *Store) Get(ctx context.Context, serviceName string) (*Credential, error) {
	query := `
		SELECT service_name, api_key, additional_keys, created_at, updated_at
		FROM api_credentials
		WHERE service_name = ?
	`

	var cred Credential
	var additionalJSON string
	err := s.db.QueryRowContext(ctx, query, serviceName).Scan(
		&cred.ServiceName, &cred.APIKey, &additionalJSON, &cred.CreatedAt, &cred.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials for %s: %w", serviceName, err)
	}

	cred.AdditionalKeys = map[string]string{}
	if additionalJSON != "" {
		if err := json.Unmarshal([]byte(additionalJSON), &cred.AdditionalKeys); err != nil {
			// A corrupt additional_keys column degrades to the primary key only
			s.logger.Warn("Failed to decode additional_keys, ignoring",
				zap.String("service_name", serviceName),
				zap.Error(err))
			cred.AdditionalKeys = map[string]string{}
		}
	}

	return &cred, nil
}

// Put inserts or replaces the credential row for a service
func (s *Store) Put(ctx context.Context, cred Credential) error {
	additionalJSON, err := json.Marshal(cred.AdditionalKeys)
	if err != nil {
		return fmt.Errorf("failed to encode additional_keys: %w", err)
	}

	query := `
		INSERT INTO api_credentials (service_name, api_key, additional_keys, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(service_name) DO UPDATE SET
			api_key = excluded.api_key,
			additional_keys = excluded.additional_keys,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, cred.ServiceName, cred.APIKey, string(additionalJSON)); err != nil {
		return fmt.Errorf("failed to upsert credentials for %s: %w", cred.ServiceName, err)
	}

	return nil
}

// Lookup implements the connection provider's credential source. Query
// failures are logged and reported as absence; they never propagate to the
// caller.
func (s *Store) Lookup(ctx context.Context, serviceName string) (string, map[string]string, bool) {
	cred, err := s.Get(ctx, serviceName)
	if err != nil {
		s.logger.Warn("Credential lookup failed",
			zap.String("service_name", serviceName),
			zap.Error(err))
		return "", nil, false
	}
	if cred == nil {
		s.logger.Warn("No credentials found for service",
			zap.String("service_name", serviceName))
		return "", nil, false
	}

	return cred.APIKey, cred.AdditionalKeys, true
}
