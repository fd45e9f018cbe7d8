package lists

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"audiencehub/internal/klaviyo"
	"audiencehub/internal/pkg/response"
)

type listFetcher interface {
	ListLists(ctx context.Context) ([]klaviyo.List, error)
}

type Handler struct {
	client listFetcher
	apiKey string
}

func NewHandler(client listFetcher, apiKey string) *Handler {
	return &Handler{client: client, apiKey: apiKey}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/lists", h.GetLists)
}

// GetLists returns the account's mailing lists as {data: [{id, name}]}.
// Remote failures are forwarded with the remote status code and error body.
func (h *Handler) GetLists(c *gin.Context) {
	if h.apiKey == "" {
		response.ConfigError(c)
		return
	}

	lists, err := h.client.ListLists(c.Request.Context())
	if err != nil {
		var apiErr *klaviyo.APIError
		if errors.As(err, &apiErr) {
			response.MessageWithDetails(c, apiErr.StatusCode, "failed to fetch lists", apiErr.Body)
			return
		}
		response.Message(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": lists})
}
