package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"overdub/internal/api"
	"overdub/internal/approvals"
	"overdub/internal/httpapi"
	"overdub/internal/jobs"
	"overdub/internal/testsupport"
)

func newTestServer(t *testing.T, token string) (*httpapi.Server, *jobs.Store, *approvals.Hub) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = token
	store := testsupport.MustOpenStore(t, cfg)
	hub := approvals.NewHub()
	service := api.NewService(store, hub)
	status := func(context.Context) api.DaemonStatus {
		return api.DaemonStatus{Running: true, Workflow: api.WorkflowStatus{Running: true}}
	}
	server := httpapi.NewServer(cfg, service, status, nil)
	if server == nil {
		t.Fatal("server not constructed")
	}
	return server, store, hub
}

func doJSON(t *testing.T, server *httpapi.Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitEndpoint(t *testing.T) {
	server, _, _ := newTestServer(t, "")

	rec := doJSON(t, server, http.MethodPost, "/api/jobs", "",
		`{"sourceLocale":"en-US","targetLocale":"es-MX","mediaUrl":"https://media.example/test.mp4"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp api.JobItemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Item.Status != "submitted" || resp.Item.JobKey == "" {
		t.Fatalf("item = %+v", resp.Item)
	}
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	server, _, _ := newTestServer(t, "")

	rec := doJSON(t, server, http.MethodPost, "/api/jobs", "",
		`{"sourceLocale":"en-US","targetLocale":"es-MX"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestListAndDescribeEndpoints(t *testing.T) {
	server, store, _ := newTestServer(t, "")
	job := testsupport.NewJob(t, store, "en-US", "fr-FR")

	rec := doJSON(t, server, http.MethodGet, "/api/jobs?status=submitted", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list api.JobListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != job.ID {
		t.Fatalf("list = %+v", list.Items)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/jobs/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("describe status = %d", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/jobs/999", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d, want 404", rec.Code)
	}
}

func TestDecisionEndpoint(t *testing.T) {
	server, store, hub := newTestServer(t, "")
	job := testsupport.NewJob(t, store, "en-US", "de-DE")
	testsupport.AdvanceTo(t, store, job, jobs.StatusPendingApproval)

	decisions, cancel := hub.Register(job.ID)
	defer cancel()

	rec := doJSON(t, server, http.MethodPost, "/api/jobs/1/decision", "",
		`{"approved":true,"reviewer":"qa"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	decision := <-decisions
	if !decision.Approved || decision.Reviewer != "qa" {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestDecisionRequiresPendingJob(t *testing.T) {
	server, store, _ := newTestServer(t, "")
	testsupport.NewJob(t, store, "en-US", "it-IT")

	rec := doJSON(t, server, http.MethodPost, "/api/jobs/1/decision", "",
		`{"approved":true,"reviewer":"qa"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestBearerTokenGuardsJobRoutes(t *testing.T) {
	server, store, _ := newTestServer(t, "secret")
	testsupport.NewJob(t, store, "en-US", "ja-JP")

	rec := doJSON(t, server, http.MethodGet, "/api/jobs", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, server, http.MethodGet, "/api/jobs", "secret", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status = %d, want 200", rec.Code)
	}

	// healthz stays open for probes
	rec = doJSON(t, server, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", rec.Code)
	}
}
