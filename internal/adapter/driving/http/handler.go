// Package httphandler is the HTTP driving adapter: the profile management
// REST surface and the SSE command endpoints consumed by the orchestration
// layer.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/directvault/internal/application"
	"github.com/ericfisherdev/directvault/internal/domain/model"
)

// DBPinger reports storage liveness for the readiness endpoint.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// Handler is the HTTP driving adapter that serves the REST and SSE API.
type Handler struct {
	profileSvc *application.ProfileService
	commandSvc *application.CommandService
	db         DBPinger
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	profileSvc *application.ProfileService,
	commandSvc *application.CommandService,
	db DBPinger,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		profileSvc: profileSvc,
		commandSvc: commandSvc,
		db:         db,
		logger:     logger,
	}
}

// RegisterRoutes registers all routes on mux. Profile and command endpoints
// require a bearer identity; health endpoints do not.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return bearerMiddleware(h.logger, fn)
	}

	mux.Handle("POST /api/v1/profiles/add", authed(h.AddProfile))
	mux.Handle("POST /api/v1/profiles/list", authed(h.ListProfiles))
	mux.Handle("POST /api/v1/profiles/delete", authed(h.DeleteProfile))

	mux.Handle("POST /api/v1/ai/get_campaigns", authed(h.GetCampaigns))
	mux.Handle("POST /api/v1/ai/get_stats", authed(h.GetStats))
	mux.Handle("POST /api/v1/ai/create_campaign", authed(h.CreateCampaign))
	mux.Handle("POST /api/v1/ai/update_budget", authed(h.UpdateBudget))
	mux.Handle("POST /api/v1/ai/toggle_network", authed(h.ToggleNetwork))
	mux.Handle("POST /api/v1/ai/create_ad_group", authed(h.CreateAdGroup))
	mux.Handle("POST /api/v1/ai/get_ad_groups", authed(h.GetAdGroups))
	mux.Handle("POST /api/v1/ai/add_keywords", authed(h.AddKeywords))
	mux.Handle("POST /api/v1/ai/get_keywords", authed(h.GetKeywords))
	mux.Handle("POST /api/v1/ai/create_ad", authed(h.CreateAd))
	mux.Handle("POST /api/v1/ai/get_ads", authed(h.GetAds))
	mux.Handle("POST /api/v1/ai/moderate_ads", authed(h.ModerateAds))
	mux.Handle("POST /api/v1/ai/disable_mobile", authed(h.DisableMobile))

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/live", h.Live)
	mux.HandleFunc("GET /api/v1/ready", h.Ready)
}

// AddProfile stores or replaces a Direct credential for the caller.
func (h *Handler) AddProfile(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	var req AddProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.profileSvc.Save(r.Context(), owner, req.Alias, req.Token, req.Description)
	if errors.Is(err, application.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to save profile", "owner", owner, "alias", req.Alias, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "profile " + req.Alias + " saved",
	})
}

// ListProfiles returns the caller's profiles without secrets.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	profiles, err := h.profileSvc.List(r.Context(), owner)
	if err != nil {
		h.logger.Error("failed to list profiles", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		resp = append(resp, toProfileResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteProfile removes a profile; a missing alias is a 404.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	owner := ownerFromContext(r.Context())

	var req DeleteProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deleted, err := h.profileSvc.Delete(r.Context(), owner, req.Alias)
	if err != nil {
		h.logger.Error("failed to delete profile", "owner", owner, "alias", req.Alias, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "profile "+req.Alias+" not found")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "profile " + req.Alias + " deleted",
	})
}

// GetCampaigns streams the caller's campaign list.
func (h *Handler) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	var req GetCampaignsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		return h.commandSvc.GetCampaigns(ctx, owner, req.Alias, req.States)
	})
}

// GetStats streams a campaign performance report. The date range defaults to
// the last 7 days when not given explicitly.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	var req GetStatsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		dateFrom, dateTo := req.DateFrom, req.DateTo
		if dateFrom == "" || dateTo == "" {
			days := req.Days
			if days <= 0 {
				days = 7
			}
			now := time.Now().UTC()
			dateTo = now.Format("2006-01-02")
			dateFrom = now.AddDate(0, 0, -days).Format("2006-01-02")
		}

		return h.commandSvc.GetStats(ctx, owner, req.Alias, model.StatsQuery{
			CampaignID: req.CampaignID,
			DateFrom:   dateFrom,
			DateTo:     dateTo,
		})
	})
}

// CreateCampaign streams the ID of a newly created campaign. The start date
// defaults to today.
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req CreateCampaignRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		startDate := req.StartDate
		if startDate == "" {
			startDate = time.Now().UTC().Format("2006-01-02")
		}

		id, err := h.commandSvc.CreateCampaign(ctx, owner, req.Alias, model.CreateCampaignParams{
			Name:             req.Name,
			StartDate:        startDate,
			DailyBudgetRub:   req.DailyBudgetRub,
			NegativeKeywords: req.NegativeKeywords,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"campaign_id": id}, nil
	})
}

// UpdateBudget streams the outcome of a budget change.
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req UpdateBudgetRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		err := h.commandSvc.UpdateBudget(ctx, owner, req.Alias, model.UpdateBudgetParams{
			CampaignID:      req.CampaignID,
			WeeklyBudgetRub: req.WeeklyBudgetRub,
			MaxCPCRub:       req.MaxCPCRub,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"campaign_id": req.CampaignID, "weekly_budget_rub": req.WeeklyBudgetRub}, nil
	})
}

// ToggleNetwork streams the outcome of enabling/disabling ad-network serving.
func (h *Handler) ToggleNetwork(w http.ResponseWriter, r *http.Request) {
	var req ToggleNetworkRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		if err := h.commandSvc.ToggleNetwork(ctx, owner, req.Alias, req.CampaignID, req.Enable); err != nil {
			return nil, err
		}
		return map[string]any{"campaign_id": req.CampaignID, "network_enabled": req.Enable}, nil
	})
}

// CreateAdGroup streams the ID of a newly created ad group. Regions default
// to all of Russia (geo 225).
func (h *Handler) CreateAdGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateAdGroupRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		regions := req.RegionIDs
		if len(regions) == 0 {
			regions = []int64{225}
		}

		id, err := h.commandSvc.CreateAdGroup(ctx, owner, req.Alias, model.CreateAdGroupParams{
			CampaignID: req.CampaignID,
			Name:       req.Name,
			RegionIDs:  regions,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"ad_group_id": id}, nil
	})
}

// GetAdGroups streams the ad groups of a campaign.
func (h *Handler) GetAdGroups(w http.ResponseWriter, r *http.Request) {
	var req GetAdGroupsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		return h.commandSvc.GetAdGroups(ctx, owner, req.Alias, req.CampaignID)
	})
}

// AddKeywords streams the accepted keyword IDs.
func (h *Handler) AddKeywords(w http.ResponseWriter, r *http.Request) {
	var req AddKeywordsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		ids, err := h.commandSvc.AddKeywords(ctx, owner, req.Alias, model.AddKeywordsParams{
			AdGroupID: req.AdGroupID,
			Keywords:  req.Keywords,
			BidRub:    req.BidRub,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"keyword_ids": ids, "added": len(ids), "requested": len(req.Keywords)}, nil
	})
}

// GetKeywords streams the keywords of an ad group.
func (h *Handler) GetKeywords(w http.ResponseWriter, r *http.Request) {
	var req GetKeywordsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		return h.commandSvc.GetKeywords(ctx, owner, req.Alias, req.AdGroupID)
	})
}

// CreateAd streams the ID of a newly created text ad.
func (h *Handler) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req CreateAdRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		id, err := h.commandSvc.CreateAd(ctx, owner, req.Alias, model.CreateAdParams{
			AdGroupID:  req.AdGroupID,
			Title:      req.Title,
			Title2:     req.Title2,
			Text:       req.Text,
			Href:       req.Href,
			DisplayURL: req.DisplayURL,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{"ad_id": id}, nil
	})
}

// GetAds streams the ads of an ad group.
func (h *Handler) GetAds(w http.ResponseWriter, r *http.Request) {
	var req GetAdsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		return h.commandSvc.GetAds(ctx, owner, req.Alias, req.AdGroupID)
	})
}

// ModerateAds streams the outcome of submitting ads for moderation.
func (h *Handler) ModerateAds(w http.ResponseWriter, r *http.Request) {
	var req ModerateAdsRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		if err := h.commandSvc.ModerateAds(ctx, owner, req.Alias, req.AdIDs); err != nil {
			return nil, err
		}
		return map[string]any{"ad_ids": req.AdIDs, "moderation": "submitted"}, nil
	})
}

// DisableMobile streams the created bid modifier IDs.
func (h *Handler) DisableMobile(w http.ResponseWriter, r *http.Request) {
	var req DisableMobileRequest
	h.streamCommand(w, r, &req, func(ctx context.Context, owner string) (any, error) {
		ids, err := h.commandSvc.DisableMobile(ctx, owner, req.Alias, req.CampaignID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"bid_modifier_ids": ids}, nil
	})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// Live is the liveness probe.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "alive"})
}

// Ready is the readiness probe; it fails when the database is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ready"})
}
