package klaviyo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"audiencehub/internal/config"
)

// Two revisions are in play: profiles and lists ride the older one, form
// definitions require the newer one.
const (
	revisionProfiles = "2023-12-15"
	revisionForms    = "2024-10-15"
)

var ErrProfileNotFound = errors.New("profile not found")

// Logical endpoint names used for outbound-call metrics. Path parameters
// like list ids never end up in a label.
const (
	opLists         = "lists"
	opProfilesList  = "profiles.list"
	opProfileCreate = "profiles.create"
	opProfileSearch = "profiles.search"
	opFormGet       = "forms.get"
	opListSubscribe = "list.subscribe"
)

// OutboundRecorder observes every remote API call the client makes. A status
// code of 0 marks a transport failure.
type OutboundRecorder interface {
	RecordOutbound(endpoint string, statusCode int)
}

// Client talks to the Klaviyo REST API. All responses are normalized into
// explicit shapes here; nothing outside this package inspects remote JSON
// except the deliberate pass-through endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	recorder   OutboundRecorder
}

// SetRecorder attaches an outbound-call recorder. Must be called before the
// client is shared.
func (c *Client) SetRecorder(r OutboundRecorder) {
	c.recorder = r
}

func NewClient(cfg config.KlaviyoConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// ListLists fetches the account's mailing lists projected to {id, name}.
// Absent or non-array data yields an empty slice, never an error.
func (c *Client) ListLists(ctx context.Context) ([]List, error) {
	body, err := c.get(ctx, opLists, "/api/lists/", revisionProfiles)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}
	var items []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	}
	if len(envelope.Data) > 0 {
		_ = json.Unmarshal(envelope.Data, &items)
	}
	lists := make([]List, 0, len(items))
	for _, item := range items {
		lists = append(lists, List{ID: item.ID, Name: item.Attributes.Name})
	}
	return lists, nil
}

// ListProfilesRaw fetches the profile collection and returns the remote body
// untouched for pass-through.
func (c *Client) ListProfilesRaw(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, opProfilesList, "/api/profiles/", revisionProfiles)
}

// CreateProfile creates a profile. A 409 from the remote is returned as an
// *APIError for which IsConflict() is true.
func (c *Client) CreateProfile(ctx context.Context, email, firstName, lastName string) (Profile, error) {
	attrs := map[string]any{"email": email}
	if firstName != "" {
		attrs["first_name"] = firstName
	}
	if lastName != "" {
		attrs["last_name"] = lastName
	}
	payload := map[string]any{
		"data": map[string]any{
			"type":       "profile",
			"attributes": attrs,
		},
	}

	body, err := c.post(ctx, opProfileCreate, "/api/profiles/", revisionProfiles, payload)
	if err != nil {
		return Profile{}, err
	}
	return DecodeProfile(body)
}

// SearchProfileByEmail looks up a profile by exact email match.
func (c *Client) SearchProfileByEmail(ctx context.Context, email string) (Profile, error) {
	path := "/api/profiles/?filter=" + url.QueryEscape(fmt.Sprintf("equals(email,%q)", email))
	body, err := c.get(ctx, opProfileSearch, path, revisionProfiles)
	if err != nil {
		return Profile{}, err
	}
	profiles, err := DecodeProfileCollection(body)
	if err != nil {
		return Profile{}, err
	}
	if len(profiles) == 0 {
		return Profile{}, ErrProfileNotFound
	}
	return profiles[0], nil
}

// GetForm fetches a form definition. Forms live behind a newer API revision
// than the rest of the endpoints.
func (c *Client) GetForm(ctx context.Context, formID string) (json.RawMessage, error) {
	return c.get(ctx, opFormGet, "/api/forms/"+url.PathEscape(formID)+"/", revisionForms)
}

// SubscribeLegacy opts an email into a list through the legacy v2 endpoint,
// which takes the API key in the request body rather than a header. The raw
// response body is returned as-is on success and inside the *APIError on
// failure, since callers forward it to the browser either way.
func (c *Client) SubscribeLegacy(ctx context.Context, listID, email string) ([]byte, error) {
	payload := map[string]any{
		"api_key":         c.apiKey,
		"profiles":        []map[string]any{{"email": email}},
		"confirm_optin":   true,
		"update_existing": true,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode subscribe payload: %w", err)
	}

	u := c.baseURL + "/api/v2/list/" + url.PathEscape(listID) + "/subscribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(opListSubscribe, req)
}

func (c *Client) get(ctx context.Context, op, path, revision string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, revision)
	return c.do(op, req)
}

func (c *Client) post(ctx context.Context, op, path, revision string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, revision)
	req.Header.Set("Content-Type", "application/json")
	return c.do(op, req)
}

func (c *Client) setHeaders(req *http.Request, revision string) {
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("revision", revision)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(op, 0)
		return nil, fmt.Errorf("klaviyo request failed: %w", err)
	}
	defer resp.Body.Close()
	c.record(op, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read klaviyo response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       RawJSON(body),
			Message:    extractMessage(body),
		}
	}
	return body, nil
}

func (c *Client) record(op string, statusCode int) {
	if c.recorder != nil {
		c.recorder.RecordOutbound(op, statusCode)
	}
}

// RawJSON keeps a remote body forwardable: valid JSON passes through
// untouched, anything else is wrapped as a JSON string.
func RawJSON(body []byte) json.RawMessage {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted)
}

// extractMessage pulls a human-readable message out of a remote error body,
// trying the JSON:API errors array first.
func extractMessage(body []byte) string {
	var jsonAPI struct {
		Errors []struct {
			Detail string `json:"detail"`
			Title  string `json:"title"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &jsonAPI); err == nil && len(jsonAPI.Errors) > 0 {
		if jsonAPI.Errors[0].Detail != "" {
			return jsonAPI.Errors[0].Detail
		}
		if jsonAPI.Errors[0].Title != "" {
			return jsonAPI.Errors[0].Title
		}
	}
	var plain struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Message != "" {
		return plain.Message
	}
	return ""
}
