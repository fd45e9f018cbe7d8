package form

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"audiencehub/internal/klaviyo"
	"audiencehub/internal/pkg/response"
)

type formFetcher interface {
	GetForm(ctx context.Context, formID string) (json.RawMessage, error)
}

type Handler struct {
	client formFetcher
	apiKey string
	formID string
}

func NewHandler(client formFetcher, apiKey, formID string) *Handler {
	return &Handler{client: client, apiKey: apiKey, formID: formID}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/form", h.GetForm)
	rg.GET("/form/fields", h.GetFormFields)
}

// GetForm forwards the raw form definition from the remote API.
func (h *Handler) GetForm(c *gin.Context) {
	if h.apiKey == "" {
		response.ConfigError(c)
		return
	}
	if h.formID == "" {
		response.Message(c, http.StatusNotFound, "no form id configured")
		return
	}

	raw, err := h.client.GetForm(c.Request.Context(), h.formID)
	if err != nil {
		forwardError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", raw)
}

// GetFormFields runs the field inference over the remote form definition and
// returns the normalized fields. An unconfigured form id yields an empty
// field list so the page falls back to its static form.
func (h *Handler) GetFormFields(c *gin.Context) {
	if h.apiKey == "" {
		response.ConfigError(c)
		return
	}
	if h.formID == "" {
		c.JSON(http.StatusOK, FormFields{Fields: []DynamicField{}})
		return
	}

	raw, err := h.client.GetForm(c.Request.Context(), h.formID)
	if err != nil {
		forwardError(c, err)
		return
	}
	c.JSON(http.StatusOK, InferFields(raw))
}

func forwardError(c *gin.Context, err error) {
	var apiErr *klaviyo.APIError
	if errors.As(err, &apiErr) {
		response.MessageWithDetails(c, apiErr.StatusCode, "failed to fetch form definition", apiErr.Body)
		return
	}
	response.Message(c, http.StatusInternalServerError, err.Error())
}
