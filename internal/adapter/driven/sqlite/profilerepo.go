package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/directvault/internal/crypto"
	"github.com/ericfisherdev/directvault/internal/domain/model"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileStore = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileStore port.
// Secrets are encrypted with the injected cipher before write and decrypted
// after read; plaintext never touches the database.
type ProfileRepo struct {
	db     *DB
	cipher *crypto.Cipher
}

// NewProfileRepo creates a ProfileRepo backed by db, sealing secrets with cipher.
func NewProfileRepo(db *DB, cipher *crypto.Cipher) *ProfileRepo {
	return &ProfileRepo{db: db, cipher: cipher}
}

// Upsert stores or replaces the profile for (owner, alias). On conflict the
// existing row keeps its created_at; secret, description and updated_at are
// replaced in a single statement, so a concurrent reader sees either the old
// row or the new one, never a mix.
func (r *ProfileRepo) Upsert(ctx context.Context, owner, alias, secret, description string) error {
	encrypted, err := r.cipher.Encrypt(secret)
	if err != nil {
		return fmt.Errorf("encrypt secret for %s/%s: %w", owner, alias, err)
	}

	const query = `
		INSERT INTO profiles (owner, alias, secret, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(owner, alias) DO UPDATE SET
			secret = excluded.secret,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.Writer.ExecContext(ctx, query, owner, alias, encrypted, nullable(description)); err != nil {
		return fmt.Errorf("upsert profile %s/%s: %w", owner, alias, err)
	}
	return nil
}

// List returns the owner's profiles ordered by alias. Secrets are not
// selected at all, so they cannot leak through this path.
func (r *ProfileRepo) List(ctx context.Context, owner string) ([]model.Profile, error) {
	const query = `
		SELECT alias, description, created_at, updated_at
		FROM profiles
		WHERE owner = ?
		ORDER BY alias`

	rows, err := r.db.Reader.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("list profiles for %s: %w", owner, err)
	}
	defer rows.Close()

	profiles := []model.Profile{}
	for rows.Next() {
		p := model.Profile{Owner: owner}
		var description sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&p.Alias, &description, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.Description = description.String

		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %s/%s: %w", owner, p.Alias, err)
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for %s/%s: %w", owner, p.Alias, err)
		}

		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, nil
}

// Delete removes the profile and reports whether a row actually existed.
func (r *ProfileRepo) Delete(ctx context.Context, owner, alias string) (bool, error) {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM profiles WHERE owner = ? AND alias = ?`, owner, alias)
	if err != nil {
		return false, fmt.Errorf("delete profile %s/%s: %w", owner, alias, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete profile %s/%s: rows affected: %w", owner, alias, err)
	}
	return affected > 0, nil
}

// GetSecret fetches and decrypts the stored secret. A decryption failure
// (e.g. ciphertext written under a rotated key) surfaces as the cipher's
// error, never as an empty secret.
func (r *ProfileRepo) GetSecret(ctx context.Context, owner, alias string) (string, error) {
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT secret FROM profiles WHERE owner = ? AND alias = ?`, owner, alias,
	).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", driven.ErrProfileNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get profile %s/%s: %w", owner, alias, err)
	}

	plaintext, err := r.cipher.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt secret for %s/%s: %w", owner, alias, err)
	}
	return plaintext, nil
}

// nullable maps an empty description to SQL NULL so "no description" is
// distinct from an intentionally blank one at the schema level.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// parseTime parses the timestamp formats SQLite produces for
// CURRENT_TIMESTAMP and for values written via the driver.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		time.RFC3339,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
