package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const credentialKey = "bearer"

// CredentialRecord is the single-row model backing BunCredentialStore.
type CredentialRecord struct {
	bun.BaseModel `bun:"table:credentials,alias:crd"`
	Key           string     `bun:"key,pk" json:"key"`
	Token         string     `bun:"token,notnull" json:"token,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunCredentialStore persists the bearer credential in a local SQLite
// database, for clients that already carry one for offline state.
type BunCredentialStore struct {
	db *bun.DB
}

var _ CredentialStore = (*BunCredentialStore)(nil)

// OpenBunCredentialStore opens (or creates) the SQLite database at path and
// ensures the credentials table exists.
func OpenBunCredentialStore(ctx context.Context, path string) (*BunCredentialStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "unable to open credential database")
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	store := &BunCredentialStore{db: db}
	if err := store.init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// NewBunCredentialStore wraps an existing bun handle. The caller keeps
// ownership of the connection.
func NewBunCredentialStore(ctx context.Context, db *bun.DB) (*BunCredentialStore, error) {
	store := &BunCredentialStore{db: db}
	if err := store.init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *BunCredentialStore) init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*CredentialRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to create credentials table")
	}
	return nil
}

func (s *BunCredentialStore) Save(token string) error {
	now := time.Now()
	record := &CredentialRecord{
		Key:       credentialKey,
		Token:     token,
		UpdatedAt: &now,
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (key) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(context.Background())
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to persist credential")
	}

	return nil
}

func (s *BunCredentialStore) Load() (string, error) {
	record := &CredentialRecord{}

	err := s.db.NewSelect().
		Model(record).
		Where("key = ?", credentialKey).
		Limit(1).
		Scan(context.Background())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrap(err, errors.CategoryOperation, "unable to read credential")
	}

	return record.Token, nil
}

func (s *BunCredentialStore) Clear() error {
	_, err := s.db.NewDelete().
		Model((*CredentialRecord)(nil)).
		Where("key = ?", credentialKey).
		Exec(context.Background())
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "unable to clear credential")
	}
	return nil
}

// Close releases the underlying database when the store owns it.
func (s *BunCredentialStore) Close() error {
	return s.db.Close()
}
