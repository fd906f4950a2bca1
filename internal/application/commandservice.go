package application

import (
	"context"

	"github.com/ericfisherdev/directvault/internal/domain/model"
	"github.com/ericfisherdev/directvault/internal/domain/port/driven"
)

// ClientFactory builds a DirectClient bound to one decrypted OAuth token.
// The composition root supplies an implementation capturing the environment
// (production vs sandbox endpoint, timeouts, report polling bounds).
type ClientFactory func(token string) driven.DirectClient

// CommandService executes one Direct API operation on behalf of an owner:
// look up the (owner, alias) credential, decrypt it, construct a client and
// invoke exactly one call. The decrypted token lives only inside the method
// invocation; nothing retains it past the outbound call.
type CommandService struct {
	store     driven.ProfileStore
	newClient ClientFactory
}

// NewCommandService creates a CommandService.
func NewCommandService(store driven.ProfileStore, newClient ClientFactory) *CommandService {
	return &CommandService{store: store, newClient: newClient}
}

// client resolves the alias to a ready-to-use DirectClient.
func (s *CommandService) client(ctx context.Context, owner, alias string) (driven.DirectClient, error) {
	token, err := s.store.GetSecret(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return s.newClient(token), nil
}

// GetCampaigns lists campaigns, optionally filtered by state.
func (s *CommandService) GetCampaigns(ctx context.Context, owner, alias string, states []string) ([]map[string]any, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.GetCampaigns(ctx, nil, states)
}

// GetStats retrieves a campaign performance report via the polling protocol.
func (s *CommandService) GetStats(ctx context.Context, owner, alias string, q model.StatsQuery) ([]model.ReportRow, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.GetStats(ctx, q)
}

// CreateCampaign creates a text campaign and returns its ID.
func (s *CommandService) CreateCampaign(ctx context.Context, owner, alias string, p model.CreateCampaignParams) (int64, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return 0, err
	}
	return c.CreateCampaign(ctx, p)
}

// UpdateBudget adjusts a campaign's weekly budget.
func (s *CommandService) UpdateBudget(ctx context.Context, owner, alias string, p model.UpdateBudgetParams) error {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return err
	}
	return c.UpdateCampaignBudget(ctx, p)
}

// ToggleNetwork enables or disables ad-network serving for a campaign.
func (s *CommandService) ToggleNetwork(ctx context.Context, owner, alias string, campaignID int64, enable bool) error {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return err
	}
	return c.ToggleNetwork(ctx, campaignID, enable)
}

// CreateAdGroup creates an ad group and returns its ID.
func (s *CommandService) CreateAdGroup(ctx context.Context, owner, alias string, p model.CreateAdGroupParams) (int64, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return 0, err
	}
	return c.CreateAdGroup(ctx, p)
}

// GetAdGroups lists the ad groups of a campaign.
func (s *CommandService) GetAdGroups(ctx context.Context, owner, alias string, campaignID int64) ([]map[string]any, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.GetAdGroups(ctx, campaignID)
}

// CreateAd creates a text ad and returns its ID.
func (s *CommandService) CreateAd(ctx context.Context, owner, alias string, p model.CreateAdParams) (int64, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return 0, err
	}
	return c.CreateTextAd(ctx, p)
}

// GetAds lists the ads of an ad group.
func (s *CommandService) GetAds(ctx context.Context, owner, alias string, adGroupID int64) ([]map[string]any, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.GetAds(ctx, adGroupID)
}

// ModerateAds submits ads for moderation.
func (s *CommandService) ModerateAds(ctx context.Context, owner, alias string, adIDs []int64) error {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return err
	}
	return c.ModerateAds(ctx, adIDs)
}

// AddKeywords adds keywords to an ad group and returns the accepted IDs.
func (s *CommandService) AddKeywords(ctx context.Context, owner, alias string, p model.AddKeywordsParams) ([]int64, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.AddKeywords(ctx, p)
}

// GetKeywords lists the keywords of an ad group.
func (s *CommandService) GetKeywords(ctx context.Context, owner, alias string, adGroupID int64) ([]map[string]any, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.GetKeywords(ctx, adGroupID)
}

// DisableMobile zeroes mobile and tablet bid modifiers for a campaign.
func (s *CommandService) DisableMobile(ctx context.Context, owner, alias string, campaignID int64) ([]int64, error) {
	c, err := s.client(ctx, owner, alias)
	if err != nil {
		return nil, err
	}
	return c.DisableMobileTraffic(ctx, campaignID)
}
