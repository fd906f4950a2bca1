package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/directvault/internal/domain/model"
)

// StatusResponse is the generic success envelope for mutating endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ProfileResponse is a stored profile without its secret.
type ProfileResponse struct {
	Alias       string  `json:"alias"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// AddProfileRequest stores or replaces a credential under an alias.
type AddProfileRequest struct {
	Alias       string `json:"alias"`
	Token       string `json:"token"`
	Description string `json:"description"`
}

// DeleteProfileRequest removes a stored credential.
type DeleteProfileRequest struct {
	Alias string `json:"alias"`
}

// GetCampaignsRequest lists campaigns, optionally filtered by state.
type GetCampaignsRequest struct {
	Alias  string   `json:"alias"`
	States []string `json:"states,omitempty"`
}

// GetStatsRequest fetches a performance report. Either an explicit
// DateFrom/DateTo pair or a trailing Days window (default 7) selects the
// range.
type GetStatsRequest struct {
	Alias      string `json:"alias"`
	CampaignID int64  `json:"campaign_id"`
	Days       int    `json:"days,omitempty"`
	DateFrom   string `json:"date_from,omitempty"`
	DateTo     string `json:"date_to,omitempty"`
}

// CreateCampaignRequest creates a text campaign.
type CreateCampaignRequest struct {
	Alias            string   `json:"alias"`
	Name             string   `json:"name"`
	StartDate        string   `json:"start_date,omitempty"`
	DailyBudgetRub   int64    `json:"daily_budget_rub"`
	NegativeKeywords []string `json:"negative_keywords,omitempty"`
}

// UpdateBudgetRequest changes a campaign's weekly spend limit.
type UpdateBudgetRequest struct {
	Alias           string `json:"alias"`
	CampaignID      int64  `json:"campaign_id"`
	WeeklyBudgetRub int64  `json:"weekly_budget_rub"`
	MaxCPCRub       int64  `json:"max_cpc_rub,omitempty"`
}

// ToggleNetworkRequest enables or disables ad-network serving.
type ToggleNetworkRequest struct {
	Alias      string `json:"alias"`
	CampaignID int64  `json:"campaign_id"`
	Enable     bool   `json:"enable"`
}

// CreateAdGroupRequest creates an ad group within a campaign.
type CreateAdGroupRequest struct {
	Alias      string  `json:"alias"`
	CampaignID int64   `json:"campaign_id"`
	Name       string  `json:"name"`
	RegionIDs  []int64 `json:"region_ids,omitempty"`
}

// GetAdGroupsRequest lists the ad groups of a campaign.
type GetAdGroupsRequest struct {
	Alias      string `json:"alias"`
	CampaignID int64  `json:"campaign_id"`
}

// AddKeywordsRequest adds a keyword batch to an ad group.
type AddKeywordsRequest struct {
	Alias     string   `json:"alias"`
	AdGroupID int64    `json:"ad_group_id"`
	Keywords  []string `json:"keywords"`
	BidRub    int64    `json:"bid_rub,omitempty"`
}

// GetKeywordsRequest lists the keywords of an ad group.
type GetKeywordsRequest struct {
	Alias     string `json:"alias"`
	AdGroupID int64  `json:"ad_group_id"`
}

// CreateAdRequest creates a text ad within an ad group.
type CreateAdRequest struct {
	Alias      string `json:"alias"`
	AdGroupID  int64  `json:"ad_group_id"`
	Title      string `json:"title"`
	Title2     string `json:"title2,omitempty"`
	Text       string `json:"text"`
	Href       string `json:"href"`
	DisplayURL string `json:"display_url,omitempty"`
}

// GetAdsRequest lists the ads of an ad group.
type GetAdsRequest struct {
	Alias     string `json:"alias"`
	AdGroupID int64  `json:"ad_group_id"`
}

// ModerateAdsRequest submits ads for moderation.
type ModerateAdsRequest struct {
	Alias string  `json:"alias"`
	AdIDs []int64 `json:"ad_ids"`
}

// DisableMobileRequest zeroes out mobile and tablet bids for a campaign.
type DisableMobileRequest struct {
	Alias      string `json:"alias"`
	CampaignID int64  `json:"campaign_id"`
}

func toProfileResponse(p model.Profile) ProfileResponse {
	var desc *string
	if p.Description != "" {
		d := p.Description
		desc = &d
	}
	return ProfileResponse{
		Alias:       p.Alias,
		Description: desc,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent; nothing left to do.
		return
	}
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
