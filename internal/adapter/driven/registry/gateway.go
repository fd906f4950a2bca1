// Package registry announces the service to the platform: its routes to the
// API gateway, and its command catalog to the toolset service. Both
// handshakes are best-effort; the service stays up when its neighbors are
// not ready yet.
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
)

const serviceName = "directvault"

// Endpoint describes one route announced to the gateway.
type Endpoint struct {
	ServiceName string `json:"serviceName"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	AccessType  string `json:"accessType"`
}

// gatewayEndpoints is the route table announced to the gateway. Profile and
// health routes are public; command routes are internal, reachable only from
// the orchestration layer.
var gatewayEndpoints = []Endpoint{
	{Method: http.MethodPost, Path: "/profiles/add", AccessType: "Public"},
	{Method: http.MethodPost, Path: "/profiles/list", AccessType: "Public"},
	{Method: http.MethodPost, Path: "/profiles/delete", AccessType: "Public"},

	{Method: http.MethodPost, Path: "/ai/get_campaigns", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/get_stats", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/create_campaign", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/update_budget", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/toggle_network", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/create_ad_group", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/get_ad_groups", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/add_keywords", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/get_keywords", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/create_ad", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/get_ads", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/moderate_ads", AccessType: "Internal"},
	{Method: http.MethodPost, Path: "/ai/disable_mobile", AccessType: "Internal"},

	{Method: http.MethodGet, Path: "/health", AccessType: "Public"},
	{Method: http.MethodGet, Path: "/live", AccessType: "Public"},
	{Method: http.MethodGet, Path: "/ready", AccessType: "Public"},
}

// GatewayClient registers the service's route table with the API gateway.
type GatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGatewayClient creates a gateway registration client. baseURL is the
// gateway's registration endpoint root; token authenticates the handshake.
func NewGatewayClient(baseURL, token string, logger *slog.Logger) *GatewayClient {
	return &GatewayClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// Register announces the service and its routes. A "Duplicate entry" reply
// means an earlier registration is still in place and counts as success.
func (c *GatewayClient) Register(ctx context.Context) error {
	endpoints := make([]Endpoint, len(gatewayEndpoints))
	for i, ep := range gatewayEndpoints {
		ep.ServiceName = serviceName
		endpoints[i] = ep
	}

	body, err := json.Marshal(map[string]any{
		"name":      serviceName,
		"endpoints": endpoints,
	})
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}

	url := c.baseURL + "/register/services"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build registration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("System", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		c.logger.Info("registered with gateway", "endpoints", len(endpoints))
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if strings.Contains(string(respBody), "Duplicate entry") {
		c.logger.Info("service already registered with gateway")
		return nil
	}

	return fmt.Errorf("gateway registration failed with status %d: %s", resp.StatusCode, respBody)
}
