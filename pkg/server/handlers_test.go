package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"citadel-sec/citadel/pkg/config"
	"citadel-sec/citadel/pkg/policy"
	"citadel-sec/citadel/pkg/policy/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *policy.Manager) {
	t.Helper()

	st := store.NewMemoryStore()
	manager := policy.NewManager(policy.ManagerConfig{
		Store:     st,
		Validator: policy.NewValidator(nil),
		Cache:     policy.NewNameCache(context.Background(), st, nil),
	})

	cfg := config.DefaultConfig()
	s := NewServer(&cfg.Server, manager, nil, nil)

	ts := httptest.NewServer(s.setupRoutes())
	t.Cleanup(ts.Close)
	return ts, manager
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return resp, b
}

func TestServer_AddAndRead(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/policies",
		`{"name":"safe1","minLength":8}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d: %s", resp.StatusCode, http.StatusCreated, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/policies/SAFE1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var p policy.PasswordPolicy
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("response is not a policy: %v\n%s", err, body)
	}
	if p.Name != "safe1" {
		t.Errorf("Name = %q, want %q", p.Name, "safe1")
	}
	if p.MinLength == nil || *p.MinLength != 8 {
		t.Errorf("MinLength = %v, want 8", p.MinLength)
	}
}

func TestServer_AddValidationFailure(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies",
		`{"name":"bad","graceLoginLimit":999}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServer_AddMalformedBody(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("POST status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServer_AddDuplicateConflict(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{"name":"safe1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{"name":"SAFE1"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate POST status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestServer_ReadNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/v1/policies/ghost", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_UpdateUsesPathName(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{"name":"safe1","maxFailure":5}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}

	// Body names a different policy; the path wins.
	resp, _ = doJSON(t, http.MethodPut, ts.URL+"/v1/policies/safe1", `{"name":"other","maxFailure":3}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/policies/safe1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	var p policy.PasswordPolicy
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("response is not a policy: %v", err)
	}
	if p.MaxFailure == nil || *p.MaxFailure != 3 {
		t.Errorf("MaxFailure = %v, want 3", p.MaxFailure)
	}
}

func TestServer_UpdateAbsentNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPut, ts.URL+"/v1/policies/ghost", `{"maxFailure":3}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("PUT status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_Delete(t *testing.T) {
	ts, m := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{"name":"safe1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/policies/safe1", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if m.IsValid("safe1") {
		t.Error("IsValid(safe1) = true after delete")
	}

	resp, _ = doJSON(t, http.MethodDelete, ts.URL+"/v1/policies/safe1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServer_SearchEmptyReturnsJSONArray(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/policies?prefix=nothing", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("empty search body = %q, want %q", got, "[]")
	}
}

func TestServer_SearchByPrefix(t *testing.T) {
	ts, _ := newTestServer(t)

	for _, name := range []string{"safe1", "safe2", "strict1"} {
		resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{"name":"`+name+`"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST %s status = %d", name, resp.StatusCode)
		}
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/policies?prefix=SAFE", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", resp.StatusCode)
	}
	var matches []*policy.PasswordPolicy
	if err := json.Unmarshal(body, &matches); err != nil {
		t.Fatalf("response is not a policy list: %v\n%s", err, body)
	}
	if len(matches) != 2 {
		t.Errorf("search returned %d matches, want 2", len(matches))
	}
}

func TestServer_ValidEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/v1/policies", `{"name":"safe1"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d", resp.StatusCode)
	}

	tests := []struct {
		name string
		want bool
	}{
		{"safe1", true},
		{"SAFE1", true},
		{"ghost", false},
	}
	for _, tt := range tests {
		resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/policies/"+tt.name+"/valid", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /valid status = %d", resp.StatusCode)
		}
		var v validityResponse
		if err := json.Unmarshal(body, &v); err != nil {
			t.Fatalf("response is not a validity check: %v", err)
		}
		if v.Valid != tt.want {
			t.Errorf("valid(%q) = %v, want %v", tt.name, v.Valid, tt.want)
		}
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPatch, ts.URL+"/v1/policies", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("PATCH collection status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/policies/safe1", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST item status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/policies/safe1/valid", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST valid status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("health body = %q", body)
	}
}
