package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const toolID = "ydirect"

// toolFunction is one callable command in the toolset catalog, described in
// the OpenAI function-calling schema the orchestration layer consumes.
type toolFunction struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func objectSchema(required []string, props map[string]any) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

func boolProp(desc string) map[string]any {
	return map[string]any{"type": "boolean", "description": desc}
}

func arrayProp(itemType, desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": itemType},
		"description": desc,
	}
}

// toolCatalog lists every command the service exposes to the orchestration
// layer. Alias is required everywhere: it selects which stored credential a
// command runs under.
func toolCatalog() []toolFunction {
	aliasProp := stringProp("Profile alias selecting the Direct account")

	fns := []functionSpec{
		{
			Name:        "get_campaigns",
			Description: "List advertising campaigns with their state and status",
			Parameters: objectSchema([]string{"alias"}, map[string]any{
				"alias":  aliasProp,
				"states": arrayProp("string", "Filter by campaign state (ON, OFF, SUSPENDED, ARCHIVED)"),
			}),
		},
		{
			Name:        "get_stats",
			Description: "Fetch campaign performance statistics (impressions, clicks, cost) over a date range",
			Parameters: objectSchema([]string{"alias", "campaign_id"}, map[string]any{
				"alias":       aliasProp,
				"campaign_id": intProp("Campaign to report on"),
				"days":        intProp("Trailing window in days, default 7"),
				"date_from":   stringProp("Range start, YYYY-MM-DD"),
				"date_to":     stringProp("Range end, YYYY-MM-DD"),
			}),
		},
		{
			Name:        "create_campaign",
			Description: "Create a text campaign with a daily budget",
			Parameters: objectSchema([]string{"alias", "name", "daily_budget_rub"}, map[string]any{
				"alias":             aliasProp,
				"name":              stringProp("Campaign name"),
				"start_date":        stringProp("Start date YYYY-MM-DD, default today"),
				"daily_budget_rub":  intProp("Daily budget in rubles"),
				"negative_keywords": arrayProp("string", "Campaign-level negative keywords"),
			}),
		},
		{
			Name:        "update_budget",
			Description: "Change a campaign's weekly budget and optional bid ceiling",
			Parameters: objectSchema([]string{"alias", "campaign_id", "weekly_budget_rub"}, map[string]any{
				"alias":             aliasProp,
				"campaign_id":       intProp("Campaign to update"),
				"weekly_budget_rub": intProp("Weekly budget in rubles"),
				"max_cpc_rub":       intProp("Maximum cost per click in rubles"),
			}),
		},
		{
			Name:        "toggle_network",
			Description: "Enable or disable serving on the ad network for a campaign",
			Parameters: objectSchema([]string{"alias", "campaign_id", "enable"}, map[string]any{
				"alias":       aliasProp,
				"campaign_id": intProp("Campaign to update"),
				"enable":      boolProp("true to serve on the ad network, false to stop"),
			}),
		},
		{
			Name:        "create_ad_group",
			Description: "Create an ad group within a campaign",
			Parameters: objectSchema([]string{"alias", "campaign_id", "name"}, map[string]any{
				"alias":       aliasProp,
				"campaign_id": intProp("Parent campaign"),
				"name":        stringProp("Ad group name"),
				"region_ids":  arrayProp("integer", "Target region IDs, default all of Russia"),
			}),
		},
		{
			Name:        "get_ad_groups",
			Description: "List the ad groups of a campaign",
			Parameters: objectSchema([]string{"alias", "campaign_id"}, map[string]any{
				"alias":       aliasProp,
				"campaign_id": intProp("Parent campaign"),
			}),
		},
		{
			Name:        "add_keywords",
			Description: "Add keywords to an ad group with an optional bid",
			Parameters: objectSchema([]string{"alias", "ad_group_id", "keywords"}, map[string]any{
				"alias":       aliasProp,
				"ad_group_id": intProp("Target ad group"),
				"keywords":    arrayProp("string", "Keyword phrases"),
				"bid_rub":     intProp("Bid per click in rubles"),
			}),
		},
		{
			Name:        "get_keywords",
			Description: "List the keywords of an ad group",
			Parameters: objectSchema([]string{"alias", "ad_group_id"}, map[string]any{
				"alias":       aliasProp,
				"ad_group_id": intProp("Target ad group"),
			}),
		},
		{
			Name:        "create_ad",
			Description: "Create a text ad within an ad group",
			Parameters: objectSchema([]string{"alias", "ad_group_id", "title", "text", "href"}, map[string]any{
				"alias":       aliasProp,
				"ad_group_id": intProp("Target ad group"),
				"title":       stringProp("Ad title, up to 56 characters"),
				"title2":      stringProp("Second title, up to 30 characters"),
				"text":        stringProp("Ad text, up to 81 characters"),
				"href":        stringProp("Landing page URL"),
				"display_url": stringProp("Display URL path"),
			}),
		},
		{
			Name:        "get_ads",
			Description: "List the ads of an ad group",
			Parameters: objectSchema([]string{"alias", "ad_group_id"}, map[string]any{
				"alias":       aliasProp,
				"ad_group_id": intProp("Target ad group"),
			}),
		},
		{
			Name:        "moderate_ads",
			Description: "Submit drafted ads for moderation",
			Parameters: objectSchema([]string{"alias", "ad_ids"}, map[string]any{
				"alias":  aliasProp,
				"ad_ids": arrayProp("integer", "Ads to submit"),
			}),
		},
		{
			Name:        "disable_mobile",
			Description: "Zero out mobile and tablet bids for a campaign",
			Parameters: objectSchema([]string{"alias", "campaign_id"}, map[string]any{
				"alias":       aliasProp,
				"campaign_id": intProp("Campaign to restrict"),
			}),
		},
	}

	catalog := make([]toolFunction, len(fns))
	for i, fn := range fns {
		catalog[i] = toolFunction{Type: "function", Function: fn}
	}
	return catalog
}

// ToolsetClient registers the command catalog with the toolset service.
type ToolsetClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries    uint64
	retryInterval time.Duration
}

// NewToolsetClient creates a toolset registration client.
func NewToolsetClient(baseURL string, logger *slog.Logger) *ToolsetClient {
	return &ToolsetClient{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
		maxRetries:    4,
		retryInterval: 10 * time.Second,
	}
}

// Register announces the command catalog, retrying while the toolset service
// comes up. The catalog replaces any previous registration under the same
// tool ID.
func (c *ToolsetClient) Register(ctx context.Context) error {
	body, err := json.Marshal(map[string]any{
		"id":   toolID,
		"data": toolCatalog(),
	})
	if err != nil {
		return fmt.Errorf("marshal tool catalog: %w", err)
	}

	attempt := 0
	operation := func() error {
		attempt++
		if attempt > 1 {
			c.logger.Info("retrying toolset registration", "attempt", attempt)
		}
		return c.registerOnce(ctx, body)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryInterval), c.maxRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("toolset registration: %w", err)
	}

	c.logger.Info("registered tool catalog", "tool_id", toolID)
	return nil
}

func (c *ToolsetClient) registerOnce(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/register", bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
