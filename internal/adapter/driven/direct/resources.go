package direct

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/directvault/internal/domain/model"
)

const rubToMicros = 1_000_000

// defaultBidCeilingMicros caps the max CPC on newly created campaigns (50 RUB).
const defaultBidCeilingMicros = 50 * rubToMicros

// GetCampaigns returns campaigns, optionally filtered by IDs and states
// (ON, OFF, SUSPENDED, ENDED, ARCHIVED, CONVERTED).
func (c *Client) GetCampaigns(ctx context.Context, ids []int64, states []string) ([]map[string]any, error) {
	criteria := map[string]any{}
	if len(ids) > 0 {
		criteria["Ids"] = ids
	}
	if len(states) > 0 {
		criteria["States"] = states
	}

	raw, err := c.call(ctx, "campaigns", "get", map[string]any{
		"SelectionCriteria": criteria,
		"FieldNames": []string{
			"Id", "Name", "State", "Status", "Type",
			"StartDate", "DailyBudget", "Statistics",
		},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Campaigns []map[string]any `json:"Campaigns"`
	}
	if err := decodeResult(raw, &result, "campaigns.get"); err != nil {
		return nil, err
	}
	return result.Campaigns, nil
}

// CreateCampaign creates a text campaign with a maximum-clicks search
// strategy derived from the daily budget and returns its ID.
func (c *Client) CreateCampaign(ctx context.Context, p model.CreateCampaignParams) (int64, error) {
	weeklyBudgetMicros := p.DailyBudgetRub * rubToMicros * 7

	negativeKeywords := p.NegativeKeywords
	if negativeKeywords == nil {
		negativeKeywords = []string{}
	}

	campaign := map[string]any{
		"Name":             p.Name,
		"StartDate":        p.StartDate,
		"NegativeKeywords": map[string]any{"Items": negativeKeywords},
		"TextCampaign": map[string]any{
			"BiddingStrategy": map[string]any{
				"Search": map[string]any{
					"BiddingStrategyType": "WB_MAXIMUM_CLICKS",
					"WbMaximumClicks": map[string]any{
						"WeeklySpendLimit": weeklyBudgetMicros,
						"BidCeiling":       defaultBidCeilingMicros,
					},
				},
				"Network": map[string]any{"BiddingStrategyType": "NETWORK_DEFAULT"},
			},
			"Settings": []map[string]any{
				{"Option": "ADD_METRICA_TAG", "Value": "YES"},
				{"Option": "ADD_TO_FAVORITES", "Value": "NO"},
				{"Option": "ENABLE_AREA_OF_INTEREST_TARGETING", "Value": "YES"},
				{"Option": "ENABLE_COMPANY_INFO", "Value": "YES"},
				{"Option": "ENABLE_SITE_MONITORING", "Value": "NO"},
			},
		},
	}

	raw, err := c.call(ctx, "campaigns", "add", map[string]any{"Campaigns": []any{campaign}})
	if err != nil {
		return 0, err
	}

	var result struct {
		AddResults []mutationResult `json:"AddResults"`
	}
	if err := decodeResult(raw, &result, "campaigns.add"); err != nil {
		return 0, err
	}
	first, err := firstMutationResult(result.AddResults, "campaigns.add")
	if err != nil {
		return 0, err
	}
	return first.ID, nil
}

// UpdateCampaignBudget replaces the campaign's weekly spend limit and,
// when p.MaxCPCRub is set, its bid ceiling.
func (c *Client) UpdateCampaignBudget(ctx context.Context, p model.UpdateBudgetParams) error {
	wbMaximumClicks := map[string]any{
		"WeeklySpendLimit": p.WeeklyBudgetRub * rubToMicros,
	}
	if p.MaxCPCRub > 0 {
		wbMaximumClicks["BidCeiling"] = p.MaxCPCRub * rubToMicros
	}

	raw, err := c.call(ctx, "campaigns", "update", map[string]any{
		"Campaigns": []any{map[string]any{
			"Id": p.CampaignID,
			"TextCampaign": map[string]any{
				"BiddingStrategy": map[string]any{
					"Search": map[string]any{
						"BiddingStrategyType": "WB_MAXIMUM_CLICKS",
						"WbMaximumClicks":     wbMaximumClicks,
					},
					"Network": map[string]any{"BiddingStrategyType": "NETWORK_DEFAULT"},
				},
			},
		}},
	})
	if err != nil {
		return err
	}

	var result struct {
		UpdateResults []mutationResult `json:"UpdateResults"`
	}
	if err := decodeResult(raw, &result, "campaigns.update"); err != nil {
		return err
	}
	_, err = firstMutationResult(result.UpdateResults, "campaigns.update")
	return err
}

// ToggleNetwork switches ad-network serving on (NETWORK_DEFAULT) or off
// (SERVING_OFF) for a campaign. The campaign must exist; the API reports an
// entry-level error otherwise.
func (c *Client) ToggleNetwork(ctx context.Context, campaignID int64, enable bool) error {
	networkType := "SERVING_OFF"
	if enable {
		networkType = "NETWORK_DEFAULT"
	}

	campaigns, err := c.GetCampaigns(ctx, []int64{campaignID}, nil)
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		return &APIError{Message: "campaign not found", Details: fmt.Sprintf("id %d", campaignID)}
	}

	raw, err := c.call(ctx, "campaigns", "update", map[string]any{
		"Campaigns": []any{map[string]any{
			"Id": campaignID,
			"TextCampaign": map[string]any{
				"BiddingStrategy": map[string]any{
					"Network": map[string]any{"BiddingStrategyType": networkType},
				},
			},
		}},
	})
	if err != nil {
		return err
	}

	var result struct {
		UpdateResults []mutationResult `json:"UpdateResults"`
	}
	if err := decodeResult(raw, &result, "campaigns.update"); err != nil {
		return err
	}
	_, err = firstMutationResult(result.UpdateResults, "campaigns.update")
	return err
}

// GetAdGroups returns the ad groups of a campaign.
func (c *Client) GetAdGroups(ctx context.Context, campaignID int64) ([]map[string]any, error) {
	raw, err := c.call(ctx, "adgroups", "get", map[string]any{
		"SelectionCriteria": map[string]any{"CampaignIds": []int64{campaignID}},
		"FieldNames":        []string{"Id", "Name", "CampaignId", "Status", "RegionIds"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		AdGroups []map[string]any `json:"AdGroups"`
	}
	if err := decodeResult(raw, &result, "adgroups.get"); err != nil {
		return nil, err
	}
	return result.AdGroups, nil
}

// CreateAdGroup creates an ad group and returns its ID.
func (c *Client) CreateAdGroup(ctx context.Context, p model.CreateAdGroupParams) (int64, error) {
	raw, err := c.call(ctx, "adgroups", "add", map[string]any{
		"AdGroups": []any{map[string]any{
			"Name":       p.Name,
			"CampaignId": p.CampaignID,
			"RegionIds":  p.RegionIDs,
		}},
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		AddResults []mutationResult `json:"AddResults"`
	}
	if err := decodeResult(raw, &result, "adgroups.add"); err != nil {
		return 0, err
	}
	first, err := firstMutationResult(result.AddResults, "adgroups.add")
	if err != nil {
		return 0, err
	}
	return first.ID, nil
}

// GetAds returns the ads of an ad group with their text fields.
func (c *Client) GetAds(ctx context.Context, adGroupID int64) ([]map[string]any, error) {
	raw, err := c.call(ctx, "ads", "get", map[string]any{
		"SelectionCriteria": map[string]any{"AdGroupIds": []int64{adGroupID}},
		"FieldNames":        []string{"Id", "AdGroupId", "Status", "State", "Type"},
		"TextAdFieldNames":  []string{"Title", "Title2", "Text", "Href", "DisplayUrlPath"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Ads []map[string]any `json:"Ads"`
	}
	if err := decodeResult(raw, &result, "ads.get"); err != nil {
		return nil, err
	}
	return result.Ads, nil
}

// CreateTextAd creates a desktop text ad and returns its ID. Title, Title2
// and Text are truncated to the API's character limits.
func (c *Client) CreateTextAd(ctx context.Context, p model.CreateAdParams) (int64, error) {
	textAd := map[string]any{
		"Title":  truncate(p.Title, 56),
		"Text":   truncate(p.Text, 81),
		"Href":   p.Href,
		"Mobile": "NO",
	}
	if p.Title2 != "" {
		textAd["Title2"] = truncate(p.Title2, 30)
	}
	if p.DisplayURL != "" {
		textAd["DisplayUrlPath"] = p.DisplayURL
	}

	raw, err := c.call(ctx, "ads", "add", map[string]any{
		"Ads": []any{map[string]any{"AdGroupId": p.AdGroupID, "TextAd": textAd}},
	})
	if err != nil {
		return 0, err
	}

	var result struct {
		AddResults []mutationResult `json:"AddResults"`
	}
	if err := decodeResult(raw, &result, "ads.add"); err != nil {
		return 0, err
	}
	first, err := firstMutationResult(result.AddResults, "ads.add")
	if err != nil {
		return 0, err
	}
	return first.ID, nil
}

// ModerateAds submits ads for moderation.
func (c *Client) ModerateAds(ctx context.Context, adIDs []int64) error {
	raw, err := c.call(ctx, "ads", "moderate", map[string]any{
		"SelectionCriteria": map[string]any{"Ids": adIDs},
	})
	if err != nil {
		return err
	}

	var result struct {
		ModerateResults []mutationResult `json:"ModerateResults"`
	}
	if err := decodeResult(raw, &result, "ads.moderate"); err != nil {
		return err
	}
	_, err = firstMutationResult(result.ModerateResults, "ads.moderate")
	return err
}

// GetKeywords returns the keywords of an ad group.
func (c *Client) GetKeywords(ctx context.Context, adGroupID int64) ([]map[string]any, error) {
	raw, err := c.call(ctx, "keywords", "get", map[string]any{
		"SelectionCriteria": map[string]any{"AdGroupIds": []int64{adGroupID}},
		"FieldNames":        []string{"Id", "Keyword", "AdGroupId", "Status", "State"},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Keywords []map[string]any `json:"Keywords"`
	}
	if err := decodeResult(raw, &result, "keywords.get"); err != nil {
		return nil, err
	}
	return result.Keywords, nil
}

// AddKeywords adds a keyword batch to an ad group and returns the IDs of the
// entries the API accepted. Per-keyword rejections are not fatal for the
// batch; the caller sees which keywords made it by the returned ID count.
func (c *Client) AddKeywords(ctx context.Context, p model.AddKeywordsParams) ([]int64, error) {
	keywords := make([]any, 0, len(p.Keywords))
	for _, kw := range p.Keywords {
		item := map[string]any{"AdGroupId": p.AdGroupID, "Keyword": kw}
		if p.BidRub > 0 {
			item["Bid"] = p.BidRub * rubToMicros
		}
		keywords = append(keywords, item)
	}

	raw, err := c.call(ctx, "keywords", "add", map[string]any{"Keywords": keywords})
	if err != nil {
		return nil, err
	}

	var result struct {
		AddResults []mutationResult `json:"AddResults"`
	}
	if err := decodeResult(raw, &result, "keywords.add"); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(result.AddResults))
	for _, r := range result.AddResults {
		if r.ID != 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// DisableMobileTraffic zeroes the mobile and tablet bid modifiers of a
// campaign and returns the created modifier IDs.
func (c *Client) DisableMobileTraffic(ctx context.Context, campaignID int64) ([]int64, error) {
	raw, err := c.call(ctx, "bidmodifiers", "add", map[string]any{
		"BidModifiers": []any{
			map[string]any{"CampaignId": campaignID, "MobileAdjustment": map[string]any{"BidModifier": 0}},
			map[string]any{"CampaignId": campaignID, "TabletAdjustment": map[string]any{"BidModifier": 0}},
		},
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		AddResults []mutationResult `json:"AddResults"`
	}
	if err := decodeResult(raw, &result, "bidmodifiers.add"); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(result.AddResults))
	for _, r := range result.AddResults {
		if r.ID != 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

// truncate clips s to max runes, keeping multi-byte text intact.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
