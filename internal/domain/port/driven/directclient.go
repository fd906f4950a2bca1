package driven

import (
	"context"

	"github.com/ericfisherdev/directvault/internal/domain/model"
)

// DirectClient defines the driven port for the Yandex.Direct API v5.
// An implementation is bound to exactly one OAuth token; the application
// layer constructs a fresh client per command from the decrypted secret.
//
// The get-style methods return the raw object maps from the API's result
// envelope: the caller is an AI-orchestration layer that renders them
// generically, so mapping ~70 response fields into structs would add
// nothing but drift.
type DirectClient interface {
	GetCampaigns(ctx context.Context, ids []int64, states []string) ([]map[string]any, error)
	CreateCampaign(ctx context.Context, p model.CreateCampaignParams) (int64, error)
	UpdateCampaignBudget(ctx context.Context, p model.UpdateBudgetParams) error
	// ToggleNetwork enables or disables serving on the ad network
	// (as opposed to search) for a campaign.
	ToggleNetwork(ctx context.Context, campaignID int64, enable bool) error

	GetAdGroups(ctx context.Context, campaignID int64) ([]map[string]any, error)
	CreateAdGroup(ctx context.Context, p model.CreateAdGroupParams) (int64, error)

	GetAds(ctx context.Context, adGroupID int64) ([]map[string]any, error)
	CreateTextAd(ctx context.Context, p model.CreateAdParams) (int64, error)
	ModerateAds(ctx context.Context, adIDs []int64) error

	GetKeywords(ctx context.Context, adGroupID int64) ([]map[string]any, error)
	AddKeywords(ctx context.Context, p model.AddKeywordsParams) ([]int64, error)

	// DisableMobileTraffic zeroes the mobile and tablet bid modifiers so the
	// campaign serves on desktop only. Returns the created modifier IDs.
	DisableMobileTraffic(ctx context.Context, campaignID int64) ([]int64, error)

	// GetStats runs the asynchronous Reports API protocol: submit, poll
	// until ready within the configured retry bound, parse the TSV body.
	GetStats(ctx context.Context, q model.StatsQuery) ([]model.ReportRow, error)
}
