package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"s1apflow/internal/config"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := config.Default()
	cfg.API.FlowsPath = filepath.Join(t.TempDir(), "missing.json")
	cfg.API.CapturePath = filepath.Join(t.TempDir(), "missing.pcapng")
	return NewHandler(cfg)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(testHandler(t).Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d", resp.StatusCode)
	}
}

func TestFilterRejectsBadRequests(t *testing.T) {
	srv := httptest.NewServer(testHandler(t).Router())
	defer srv.Close()

	post := func(body string) int {
		resp, err := http.Post(srv.URL+"/api/v1/flows/filter", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		defer resp.Body.Close()
		return resp.StatusCode
	}

	if code := post(`{not json`); code != http.StatusBadRequest {
		t.Errorf("Malformed body: status %d", code)
	}
	if code := post(`{"start":"nonsense","end":"100"}`); code != http.StatusBadRequest {
		t.Errorf("Malformed start: status %d", code)
	}
	if code := post(`{"start":"0","end":"100","mode":"sideways"}`); code != http.StatusBadRequest {
		t.Errorf("Unknown mode: status %d", code)
	}
	// Valid request against a missing flow set is a server-side failure,
	// not a usage error.
	if code := post(`{"start":"0","end":"100"}`); code != http.StatusInternalServerError {
		t.Errorf("Missing flow set: status %d", code)
	}
}
