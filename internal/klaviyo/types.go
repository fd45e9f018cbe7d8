package klaviyo

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SubscriptionStatus is the normalized email-marketing consent state of a
// profile.
type SubscriptionStatus string

const (
	StatusSubscribed   SubscriptionStatus = "subscribed"
	StatusUnsubscribed SubscriptionStatus = "unsubscribed"
	StatusPending      SubscriptionStatus = "pending"
	StatusUnknown      SubscriptionStatus = "unknown"
)

// Profile is the single shape every profile-bearing remote response is
// normalized into at the client boundary. Raw keeps the original resource
// object for callers that echo it back.
type Profile struct {
	ID        string             `json:"id"`
	Email     string             `json:"email"`
	FirstName string             `json:"first_name,omitempty"`
	LastName  string             `json:"last_name,omitempty"`
	Status    SubscriptionStatus `json:"status"`
	Raw       json.RawMessage    `json:"-"`
}

// List is a remote mailing list projected to what the dashboard displays.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// APIError carries a non-success remote response: the status code and the
// raw body so handlers can forward both verbatim.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("klaviyo: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("klaviyo: status %d", e.StatusCode)
}

// IsConflict reports whether the remote refused a create because the
// resource already exists.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

// resource is the JSON:API wire shape of a profile.
type resource struct {
	ID         string       `json:"id"`
	Type       string       `json:"type"`
	Attributes profileAttrs `json:"attributes"`

	raw json.RawMessage
}

type profileAttrs struct {
	Email         string         `json:"email"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Subscriptions *subscriptions `json:"subscriptions"`
}

type subscriptions struct {
	Email *channelSubscription `json:"email"`
}

type channelSubscription struct {
	Marketing *marketingConsent `json:"marketing"`
}

type marketingConsent struct {
	Consent string `json:"consent"`
}

func (r resource) toProfile() Profile {
	return Profile{
		ID:        r.ID,
		Email:     r.Attributes.Email,
		FirstName: r.Attributes.FirstName,
		LastName:  r.Attributes.LastName,
		Status:    r.Attributes.consentStatus(),
		Raw:       r.raw,
	}
}

func (a profileAttrs) consentStatus() SubscriptionStatus {
	if a.Subscriptions == nil || a.Subscriptions.Email == nil || a.Subscriptions.Email.Marketing == nil {
		return StatusUnknown
	}
	return normalizeConsent(a.Subscriptions.Email.Marketing.Consent)
}

func normalizeConsent(consent string) SubscriptionStatus {
	switch strings.ToUpper(strings.TrimSpace(consent)) {
	case "SUBSCRIBED":
		return StatusSubscribed
	case "UNSUBSCRIBED":
		return StatusUnsubscribed
	case "PENDING", "NEEDS_CONFIRMATION":
		return StatusPending
	default:
		return StatusUnknown
	}
}

// DecodeProfile decodes a single-resource response body, {data:{...}}.
func DecodeProfile(body []byte) (Profile, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Profile{}, fmt.Errorf("decode profile envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return Profile{}, fmt.Errorf("profile response has no data")
	}
	var res resource
	if err := json.Unmarshal(envelope.Data, &res); err != nil {
		return Profile{}, fmt.Errorf("decode profile resource: %w", err)
	}
	res.raw = envelope.Data
	return res.toProfile(), nil
}

// DecodeProfileCollection decodes a collection response body, {data:[{...}]}.
// Absent or non-array data yields an empty slice, not an error.
func DecodeProfileCollection(body []byte) ([]Profile, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode profile collection: %w", err)
	}
	var items []json.RawMessage
	if len(envelope.Data) > 0 {
		// tolerate non-array data the same way the lists endpoint does
		_ = json.Unmarshal(envelope.Data, &items)
	}
	profiles := make([]Profile, 0, len(items))
	for _, item := range items {
		var res resource
		if err := json.Unmarshal(item, &res); err != nil {
			return nil, fmt.Errorf("decode profile resource: %w", err)
		}
		res.raw = item
		profiles = append(profiles, res.toProfile())
	}
	return profiles, nil
}
