package application

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/directvault/internal/domain/model"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

// fakeProfileStore is an in-memory ProfileStore for service tests.
type fakeProfileStore struct {
	secrets      map[string]string // "owner/alias" -> plaintext
	descriptions map[string]string
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		secrets:      map[string]string{},
		descriptions: map[string]string{},
	}
}

func (f *fakeProfileStore) key(owner, alias string) string { return owner + "/" + alias }

func (f *fakeProfileStore) Upsert(_ context.Context, owner, alias, secret, description string) error {
	f.secrets[f.key(owner, alias)] = secret
	f.descriptions[f.key(owner, alias)] = description
	return nil
}

func (f *fakeProfileStore) List(_ context.Context, owner string) ([]model.Profile, error) {
	profiles := []model.Profile{}
	for key, description := range f.descriptions {
		parts := strings.SplitN(key, "/", 2)
		if parts[0] == owner {
			profiles = append(profiles, model.Profile{Owner: owner, Alias: parts[1], Description: description})
		}
	}
	return profiles, nil
}

func (f *fakeProfileStore) Delete(_ context.Context, owner, alias string) (bool, error) {
	key := f.key(owner, alias)
	if _, ok := f.secrets[key]; !ok {
		return false, nil
	}
	delete(f.secrets, key)
	delete(f.descriptions, key)
	return true, nil
}

func (f *fakeProfileStore) GetSecret(_ context.Context, owner, alias string) (string, error) {
	secret, ok := f.secrets[f.key(owner, alias)]
	if !ok {
		return "", driven.ErrProfileNotFound
	}
	return secret, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestProfileService_Save(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store, testLogger())

	err := svc.Save(context.Background(), "u@test.com", "client1", "tok-123", "main")
	require.NoError(t, err)

	secret, err := store.GetSecret(context.Background(), "u@test.com", "client1")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", secret)
}

func TestProfileService_SaveValidation(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore(), testLogger())
	ctx := context.Background()

	assert.ErrorIs(t, svc.Save(ctx, "u@test.com", "", "tok", ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.Save(ctx, "u@test.com", strings.Repeat("a", 256), "tok", ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.Save(ctx, "u@test.com", "client1", "", ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.Save(ctx, "u@test.com", "client1", "tok", strings.Repeat("d", 501)), ErrInvalidInput)
}

func TestProfileService_DeleteReportsExistence(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "u@test.com", "client1", "tok", ""))

	deleted, err := svc.Delete(ctx, "u@test.com", "client1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, "u@test.com", "client1")
	require.NoError(t, err)
	assert.False(t, deleted)
}
