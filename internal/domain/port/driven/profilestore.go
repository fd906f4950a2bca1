package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/directvault/internal/domain/model"
)

// ErrProfileNotFound indicates no profile exists for the requested
// (owner, alias) pair. Callers must surface this distinctly; it is never
// equivalent to an empty secret.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore defines the driven port for encrypted credential persistence.
// The adapter layer owns encryption/decryption; this interface operates on
// plaintext secrets at the domain boundary, and those plaintexts must not
// outlive the call that consumed them.
type ProfileStore interface {
	// Upsert stores or replaces the profile for (owner, alias). An existing
	// row keeps its created_at; secret, description and updated_at are
	// replaced atomically.
	Upsert(ctx context.Context, owner, alias, secret, description string) error

	// List returns the owner's profiles ordered by alias, without secrets.
	// An owner with no profiles yields an empty slice, not an error.
	List(ctx context.Context, owner string) ([]model.Profile, error)

	// Delete removes the profile and reports whether a row actually existed.
	Delete(ctx context.Context, owner, alias string) (bool, error)

	// GetSecret fetches and decrypts the stored secret. Returns
	// ErrProfileNotFound when absent; decryption failures propagate as the
	// cipher's errors, never as an empty string.
	GetSecret(ctx context.Context, owner, alias string) (string, error)
}
