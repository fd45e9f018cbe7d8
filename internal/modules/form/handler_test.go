package form

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"audiencehub/internal/klaviyo"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) GetForm(ctx context.Context, formID string) (json.RawMessage, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func setupRouter(t *testing.T, client formFetcher, apiKey, formID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(client, apiKey, formID).RegisterRoutes(router.Group("/"))
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetFormMissingAPIKey(t *testing.T) {
	client := new(MockFetcher)
	w := get(setupRouter(t, client, "", "form-1"), "/form")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	client.AssertNotCalled(t, "GetForm", mock.Anything, mock.Anything)
}

func TestGetFormPassThrough(t *testing.T) {
	client := new(MockFetcher)
	raw := json.RawMessage(`{"data":{"attributes":{"name":"Signup"}}}`)
	client.On("GetForm", mock.Anything, "form-1").Return(raw, nil)

	w := get(setupRouter(t, client, "pk_test", "form-1"), "/form")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, string(raw), w.Body.String())
}

func TestGetFormNoFormConfigured(t *testing.T) {
	client := new(MockFetcher)
	w := get(setupRouter(t, client, "pk_test", ""), "/form")

	assert.Equal(t, http.StatusNotFound, w.Code)
	client.AssertNotCalled(t, "GetForm", mock.Anything, mock.Anything)
}

func TestGetFormFieldsInfersFromDefinition(t *testing.T) {
	client := new(MockFetcher)
	client.On("GetForm", mock.Anything, "form-1").Return(json.RawMessage(`{"data":{"attributes":{
		"name":"Signup",
		"versions":[{"name":"embed","steps":[{"fields":[
			{"type":"email","name":"email","label":"Email"},
			{"name":"marketing_consent","label":"Keep me posted"}
		]}]}]
	}}}`), nil)

	w := get(setupRouter(t, client, "pk_test", "form-1"), "/form/fields")

	require.Equal(t, http.StatusOK, w.Code)
	var result FormFields
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Signup", result.Title)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, KindEmail, result.Fields[0].Kind)
	assert.Equal(t, KindCheckbox, result.Fields[1].Kind)
}

func TestGetFormFieldsEmptyWithoutFormID(t *testing.T) {
	client := new(MockFetcher)
	w := get(setupRouter(t, client, "pk_test", ""), "/form/fields")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"title":"","fields":[]}`, w.Body.String())
	client.AssertNotCalled(t, "GetForm", mock.Anything, mock.Anything)
}

func TestGetFormForwardsRemoteFailure(t *testing.T) {
	client := new(MockFetcher)
	client.On("GetForm", mock.Anything, "form-1").Return(nil, &klaviyo.APIError{
		StatusCode: http.StatusNotFound,
		Body:       []byte(`{"errors":[{"detail":"no such form"}]}`),
	})

	w := get(setupRouter(t, client, "pk_test", "form-1"), "/form")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed to fetch form definition", resp.Message)
}
