package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/directvault/internal/domain/model"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

// fakeDirectClient records the token it was constructed with and the calls
// made against it.
type fakeDirectClient struct {
	token string
	calls []string
}

func (f *fakeDirectClient) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeDirectClient) GetCampaigns(context.Context, []int64, []string) ([]map[string]any, error) {
	f.record("GetCampaigns")
	return []map[string]any{{"Id": float64(101)}}, nil
}

func (f *fakeDirectClient) CreateCampaign(context.Context, model.CreateCampaignParams) (int64, error) {
	f.record("CreateCampaign")
	return 555, nil
}

func (f *fakeDirectClient) UpdateCampaignBudget(context.Context, model.UpdateBudgetParams) error {
	f.record("UpdateCampaignBudget")
	return nil
}

func (f *fakeDirectClient) ToggleNetwork(context.Context, int64, bool) error {
	f.record("ToggleNetwork")
	return nil
}

func (f *fakeDirectClient) GetAdGroups(context.Context, int64) ([]map[string]any, error) {
	f.record("GetAdGroups")
	return nil, nil
}

func (f *fakeDirectClient) CreateAdGroup(context.Context, model.CreateAdGroupParams) (int64, error) {
	f.record("CreateAdGroup")
	return 777, nil
}

func (f *fakeDirectClient) GetAds(context.Context, int64) ([]map[string]any, error) {
	f.record("GetAds")
	return nil, nil
}

func (f *fakeDirectClient) CreateTextAd(context.Context, model.CreateAdParams) (int64, error) {
	f.record("CreateTextAd")
	return 888, nil
}

func (f *fakeDirectClient) ModerateAds(context.Context, []int64) error {
	f.record("ModerateAds")
	return nil
}

func (f *fakeDirectClient) GetKeywords(context.Context, int64) ([]map[string]any, error) {
	f.record("GetKeywords")
	return nil, nil
}

func (f *fakeDirectClient) AddKeywords(context.Context, model.AddKeywordsParams) ([]int64, error) {
	f.record("AddKeywords")
	return []int64{1, 2}, nil
}

func (f *fakeDirectClient) DisableMobileTraffic(context.Context, int64) ([]int64, error) {
	f.record("DisableMobileTraffic")
	return []int64{31, 32}, nil
}

func (f *fakeDirectClient) GetStats(context.Context, model.StatsQuery) ([]model.ReportRow, error) {
	f.record("GetStats")
	return []model.ReportRow{{"Clicks": "42"}}, nil
}

func TestCommandService_BuildsClientFromStoredSecret(t *testing.T) {
	store := newFakeProfileStore()
	require.NoError(t, store.Upsert(context.Background(), "u@test.com", "client1", "tok-123", ""))

	var built *fakeDirectClient
	svc := NewCommandService(store, func(token string) driven.DirectClient {
		built = &fakeDirectClient{token: token}
		return built
	})

	campaigns, err := svc.GetCampaigns(context.Background(), "u@test.com", "client1", nil)

	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	require.NotNil(t, built)
	assert.Equal(t, "tok-123", built.token, "client must be constructed with the decrypted secret")
	assert.Equal(t, []string{"GetCampaigns"}, built.calls)
}

func TestCommandService_UnknownAlias(t *testing.T) {
	svc := NewCommandService(newFakeProfileStore(), func(string) driven.DirectClient {
		t.Fatal("no client must be built when the credential lookup fails")
		return nil
	})

	_, err := svc.GetCampaigns(context.Background(), "u@test.com", "missing", nil)

	assert.ErrorIs(t, err, driven.ErrProfileNotFound)
}

func TestCommandService_OneClientPerCommand(t *testing.T) {
	store := newFakeProfileStore()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "u@test.com", "client1", "tok-123", ""))

	var clients []*fakeDirectClient
	svc := NewCommandService(store, func(token string) driven.DirectClient {
		c := &fakeDirectClient{token: token}
		clients = append(clients, c)
		return c
	})

	_, err := svc.CreateCampaign(ctx, "u@test.com", "client1", model.CreateCampaignParams{Name: "n"})
	require.NoError(t, err)
	_, err = svc.GetStats(ctx, "u@test.com", "client1", model.StatsQuery{CampaignID: 101})
	require.NoError(t, err)

	assert.Len(t, clients, 2, "each command constructs a fresh client scoped to that call")
}
