// Package application contains the use-case services binding inbound
// commands to the credential store and the Direct API client.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/ericfisherdev/directvault/internal/domain/model"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

// ErrInvalidInput marks a request rejected before touching storage.
var ErrInvalidInput = errors.New("invalid input")

const maxAliasLen = 255

// ProfileService manages stored Direct credentials for an owner. All methods
// are scoped by the owner identity the transport layer extracted from the
// gateway token; no cross-owner access path exists.
type ProfileService struct {
	store  driven.ProfileStore
	logger *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(store driven.ProfileStore, logger *slog.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// Save validates and upserts a credential. The plaintext token is handed
// straight to the store, which encrypts before writing; it is never logged.
func (s *ProfileService) Save(ctx context.Context, owner, alias, token, description string) error {
	if alias == "" || utf8.RuneCountInString(alias) > maxAliasLen {
		return fmt.Errorf("%w: alias must be 1-%d characters", ErrInvalidInput, maxAliasLen)
	}
	if token == "" {
		return fmt.Errorf("%w: token must not be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(description) > model.MaxDescriptionLen {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, model.MaxDescriptionLen)
	}

	if err := s.store.Upsert(ctx, owner, alias, token, description); err != nil {
		return err
	}

	s.logger.Info("profile saved", "owner", owner, "alias", alias)
	return nil
}

// List returns the owner's profiles, secrets excluded by construction.
func (s *ProfileService) List(ctx context.Context, owner string) ([]model.Profile, error) {
	return s.store.List(ctx, owner)
}

// Delete removes a profile and reports whether it existed.
func (s *ProfileService) Delete(ctx context.Context, owner, alias string) (bool, error) {
	deleted, err := s.store.Delete(ctx, owner, alias)
	if err != nil {
		return false, err
	}
	if deleted {
		s.logger.Info("profile deleted", "owner", owner, "alias", alias)
	}
	return deleted, nil
}
