// Package testutil provides shared helpers for AthenaPipe tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AthenaAdvising/AthenaPipe/internal/models"
)

// MockGenAI is a configurable stand-in for the GenAI client. Unset fields
// fall back to canned responses so most tests only override what they assert.
type MockGenAI struct {
	GeneratePromptFunc       func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateWithMessagesFunc func(ctx context.Context, systemPrompt string, history []models.Message) (string, error)
	EmbedFunc                func(ctx context.Context, text string) ([]float64, error)
}

func (m *MockGenAI) GeneratePrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.GeneratePromptFunc != nil {
		return m.GeneratePromptFunc(ctx, systemPrompt, userPrompt)
	}
	return "mock response", nil
}

func (m *MockGenAI) GenerateWithMessages(ctx context.Context, systemPrompt string, history []models.Message) (string, error) {
	if m.GenerateWithMessagesFunc != nil {
		return m.GenerateWithMessagesFunc(ctx, systemPrompt, history)
	}
	return "mock response", nil
}

func (m *MockGenAI) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float64{0, 0, 1}, nil
}

// CreateHTTPRequest builds a JSON request for handler tests.
func CreateHTTPRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertHTTPStatus fails the test when the recorded status differs.
func AssertHTTPStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// AssertJSONResponse decodes the recorded body into the envelope and checks
// the status field.
func AssertJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, wantStatus string) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if resp.Status != wantStatus {
		t.Fatalf("expected response status %q, got %q (message: %q)", wantStatus, resp.Status, resp.Message)
	}
	return resp
}
