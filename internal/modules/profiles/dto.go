package profiles

import (
	"encoding/json"

	"audiencehub/internal/klaviyo"
)

type UpsertRequest struct {
	Email     string `json:"email" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Subscribe bool   `json:"subscribe"`
	ListID    string `json:"list_id"`
}

// UpsertResult is what the service hands back to the handler: the resolved
// profile plus everything the caller needs to diagnose double-opt-in state.
type UpsertResult struct {
	Profile         klaviyo.Profile
	Subscribed      bool
	Warning         string
	SubscribeResult json.RawMessage
	MarketingStatus klaviyo.SubscriptionStatus // empty when the status read failed
}

type UpsertResponse struct {
	Message         string          `json:"message"`
	Profile         json.RawMessage `json:"profile"`
	ProfileID       string          `json:"profile_id"`
	Subscribed      bool            `json:"subscribed"`
	Warning         string          `json:"warning,omitempty"`
	SubscribeResult json.RawMessage `json:"subscribe_result,omitempty"`
	MarketingStatus string          `json:"marketing_status,omitempty"`
}
