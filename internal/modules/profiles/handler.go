package profiles

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"audiencehub/internal/klaviyo"
	"audiencehub/internal/middleware"
	"audiencehub/internal/pkg/response"
)

type Handler struct {
	client  marketingClient
	service *Service
	apiKey  string
	logger  *slog.Logger
}

func NewHandler(client marketingClient, service *Service, apiKey string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{client: client, service: service, apiKey: apiKey, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profiles", h.GetProfiles)
	rg.POST("/profiles", h.UpsertProfile)
	rg.OPTIONS("/profiles", func(*gin.Context) {}) // preflight terminates in the CORS middleware
}

// GetProfiles forwards the remote profile collection unchanged. With a
// ?sort=<key>&dir=<asc|desc> query it returns a sorted {data: [...]}
// projection instead, using the same comparator the page uses.
func (h *Handler) GetProfiles(c *gin.Context) {
	if h.apiKey == "" {
		response.ConfigErrorPassThrough(c)
		return
	}

	raw, err := h.client.ListProfilesRaw(c.Request.Context())
	if err != nil {
		h.logger.Error("list profiles failed", "request_id", middleware.RequestID(c), "error", err)
		var apiErr *klaviyo.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = "failed to fetch profiles"
			}
			response.Error(c, apiErr.StatusCode, msg)
			return
		}
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	key := c.Query("sort")
	if key == "" {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}

	collection, err := klaviyo.DecodeProfileCollection(raw)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "unexpected profile collection shape")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": SortProfiles(collection, key, c.Query("dir")),
	})
}

// UpsertProfile creates or finds a profile, optionally subscribes it to a
// list, and reports the resulting marketing status.
func (h *Handler) UpsertProfile(c *gin.Context) {
	if h.apiKey == "" {
		response.ConfigError(c)
		return
	}

	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "email is required")
		return
	}

	result, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("upsert failed", "request_id", middleware.RequestID(c), "email", req.Email, "error", err)
		switch {
		case errors.Is(err, ErrUpsertFallback):
			response.Message(c, http.StatusInternalServerError, err.Error())
		default:
			var apiErr *klaviyo.APIError
			if errors.As(err, &apiErr) {
				response.MessageWithDetails(c, apiErr.StatusCode, "profile creation failed", apiErr.Body)
				return
			}
			response.Message(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	profileJSON := result.Profile.Raw
	if len(profileJSON) == 0 {
		profileJSON, _ = json.Marshal(result.Profile)
	}

	c.JSON(http.StatusOK, UpsertResponse{
		Message:         "ok",
		Profile:         profileJSON,
		ProfileID:       result.Profile.ID,
		Subscribed:      result.Subscribed,
		Warning:         result.Warning,
		SubscribeResult: result.SubscribeResult,
		MarketingStatus: string(result.MarketingStatus),
	})
}
