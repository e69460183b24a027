package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"alertsphere/internal/notification/domain"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// TokenRecord is one device token ever issued on this device.
type TokenRecord struct {
	Value        string     `db:"value"`
	Subscription string     `db:"subscription"`
	KeyHash      string     `db:"key_hash"`
	IssuedAt     time.Time  `db:"issued_at"`
	SupersededAt *time.Time `db:"superseded_at"`
}

// SQLiteStore keeps per-device notification state: the permission decision,
// registered background contexts and the token history.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the device database at dbPath and applies
// pending migrations. ":memory:" gives a private in-process database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// Every pooled connection to ":memory:" would see its own empty database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// ensureDevice creates the singleton device row on first use.
func (s *SQLiteStore) ensureDevice(ctx context.Context) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO device (singleton, device_id, permission, created_at, updated_at)
		VALUES (1, ?, ?, ?, ?)`,
		uuid.New().String(), string(domain.PermissionDefault), now, now,
	)
	if err != nil {
		return fmt.Errorf("initialising device row: %w", err)
	}
	return nil
}

// DeviceID returns the stable identifier of this installation.
func (s *SQLiteStore) DeviceID(ctx context.Context) (string, error) {
	if err := s.ensureDevice(ctx); err != nil {
		return "", err
	}
	var id string
	if err := s.db.GetContext(ctx, &id, "SELECT device_id FROM device WHERE singleton = 1"); err != nil {
		return "", fmt.Errorf("reading device id: %w", err)
	}
	return id, nil
}

// Permission returns the persisted permission decision, "default" if the user
// has never decided.
func (s *SQLiteStore) Permission(ctx context.Context) (domain.Permission, error) {
	if err := s.ensureDevice(ctx); err != nil {
		return domain.PermissionDefault, err
	}
	var p string
	if err := s.db.GetContext(ctx, &p, "SELECT permission FROM device WHERE singleton = 1"); err != nil {
		return domain.PermissionDefault, fmt.Errorf("reading permission: %w", err)
	}
	return domain.Permission(p), nil
}

func (s *SQLiteStore) SetPermission(ctx context.Context, p domain.Permission) error {
	if err := s.ensureDevice(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE device SET permission = ?, updated_at = ? WHERE singleton = 1",
		string(p), s.now())
	if err != nil {
		return fmt.Errorf("saving permission: %w", err)
	}
	return nil
}

// Registration returns the background context registered at path, or
// ErrNotFound.
func (s *SQLiteStore) Registration(ctx context.Context, path string) (*domain.Registration, error) {
	var reg domain.Registration
	err := s.db.GetContext(ctx, &reg,
		"SELECT path, subscription, registered_at FROM background_contexts WHERE path = ?", path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading registration %q: %w", path, err)
	}
	return &reg, nil
}

func (s *SQLiteStore) SaveRegistration(ctx context.Context, reg domain.Registration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO background_contexts (path, subscription, registered_at)
		VALUES (?, ?, ?)`,
		reg.Path, reg.Subscription, reg.RegisteredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving registration %q: %w", reg.Path, err)
	}
	return nil
}

// ActiveToken returns the unsuperseded token bound to subscription, or
// ErrNotFound.
func (s *SQLiteStore) ActiveToken(ctx context.Context, subscription string) (*TokenRecord, error) {
	var rec TokenRecord
	err := s.db.GetContext(ctx, &rec, `
		SELECT value, subscription, key_hash, issued_at, superseded_at
		FROM device_tokens
		WHERE subscription = ? AND superseded_at IS NULL
		ORDER BY issued_at DESC
		LIMIT 1`, subscription)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading active token: %w", err)
	}
	return &rec, nil
}

// RecordToken stores rec as the active token for its subscription and marks
// any previous active token as superseded.
func (s *SQLiteStore) RecordToken(ctx context.Context, rec TokenRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE device_tokens SET superseded_at = ?
		WHERE subscription = ? AND superseded_at IS NULL AND value != ?`,
		now, rec.Subscription, rec.Value,
	); err != nil {
		return fmt.Errorf("superseding previous token: %w", err)
	}

	if rec.IssuedAt.IsZero() {
		rec.IssuedAt = now
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO device_tokens (value, subscription, key_hash, issued_at, superseded_at)
		VALUES (?, ?, ?, ?, NULL)
		ON CONFLICT(value) DO UPDATE SET superseded_at = NULL`,
		rec.Value, rec.Subscription, rec.KeyHash, rec.IssuedAt.UTC(),
	); err != nil {
		return fmt.Errorf("recording token: %w", err)
	}

	return tx.Commit()
}

// TokenHistory lists every token issued on this device, newest first.
func (s *SQLiteStore) TokenHistory(ctx context.Context) ([]TokenRecord, error) {
	var out []TokenRecord
	err := s.db.SelectContext(ctx, &out, `
		SELECT value, subscription, key_hash, issued_at, superseded_at
		FROM device_tokens
		ORDER BY issued_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	return out, nil
}

// HoldForeground claims or renews the foreground lease for holder until
// ttl from now. A live lease held by someone else is not taken over.
func (s *SQLiteStore) HoldForeground(ctx context.Context, holder string, ttl time.Duration) (bool, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO foreground_lease (singleton, holder, expires_at)
		VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET holder = excluded.holder, expires_at = excluded.expires_at
		WHERE foreground_lease.holder = excluded.holder OR foreground_lease.expires_at <= ?`,
		holder, now.Add(ttl).UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("holding foreground lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("holding foreground lease: %w", err)
	}
	return n > 0, nil
}

// ReleaseForeground drops the lease if holder still owns it.
func (s *SQLiteStore) ReleaseForeground(ctx context.Context, holder string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM foreground_lease WHERE singleton = 1 AND holder = ?", holder)
	if err != nil {
		return fmt.Errorf("releasing foreground lease: %w", err)
	}
	return nil
}

// ForegroundActive reports whether an unexpired foreground lease exists.
func (s *SQLiteStore) ForegroundActive(ctx context.Context) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM foreground_lease WHERE singleton = 1 AND expires_at > ?", s.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("reading foreground lease: %w", err)
	}
	return n > 0, nil
}
