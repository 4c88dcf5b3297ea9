package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"podbench/internal/api"
)

func TestNewNormalizesBareAddress(t *testing.T) {
	c, err := New("127.0.0.1:9000")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if got := c.BaseURL(); got != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected base url %q", got)
	}

	if _, err := New("   "); err == nil {
		t.Fatal("expected error for blank base url")
	}
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/status" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		payload := api.DaemonStatus{Running: true, PID: 4242, EpisodeCount: 3}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	status, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if !status.Running || status.PID != 4242 || status.EpisodeCount != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestListEpisodesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		for key, want := range map[string]string{
			"limit":  "5",
			"offset": "10",
			"sort":   "created_at",
			"order":  "desc",
			"stage":  "preprocess",
			"status": "completed",
		} {
			if got := query.Get(key); got != want {
				t.Errorf("query %s = %q, want %q", key, got, want)
			}
		}
		resp := api.EpisodeListResponse{Episodes: []api.Episode{{ID: "ep-1"}}, Total: 12}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	list, err := c.ListEpisodes(context.Background(), ListOptions{
		Limit:  5,
		Offset: 10,
		Sort:   "created_at",
		Order:  "desc",
		Stage:  "preprocess",
		Status: "completed",
	})
	if err != nil {
		t.Fatalf("ListEpisodes returned error: %v", err)
	}
	if len(list.Episodes) != 1 || list.Episodes[0].ID != "ep-1" || list.Total != 12 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCreateEpisodeMultipart(t *testing.T) {
	dir := t.TempDir()
	alice := filepath.Join(dir, "alice.wav")
	bob := filepath.Join(dir, "bob.wav")
	if err := os.WriteFile(alice, []byte("RIFF-alice"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(bob, []byte("RIFF-bob"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/episodes" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := r.FormValue("title"); got != "Launch Week" {
			t.Errorf("title = %q", got)
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) != 2 {
			t.Errorf("expected 2 files, got %d", len(headers))
		}
		for _, header := range headers {
			part, err := header.Open()
			if err != nil {
				t.Errorf("open part %s: %v", header.Filename, err)
				continue
			}
			buf := make([]byte, 4)
			if _, err := part.Read(buf); err != nil {
				t.Errorf("read part %s: %v", header.Filename, err)
			}
			part.Close()
			if string(buf) != "RIFF" {
				t.Errorf("part %s content %q", header.Filename, buf)
			}
		}
		w.WriteHeader(http.StatusCreated)
		resp := api.EpisodeResponse{Episode: api.Episode{ID: "ep-1", Title: "Launch Week"}}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	episode, err := c.CreateEpisode(context.Background(), "Launch Week", []string{alice, bob})
	if err != nil {
		t.Fatalf("CreateEpisode returned error: %v", err)
	}
	if episode.ID != "ep-1" || episode.Title != "Launch Week" {
		t.Fatalf("unexpected episode %+v", episode)
	}

	if _, err := c.CreateEpisode(context.Background(), "", nil); err == nil {
		t.Fatal("expected error for empty file list")
	}
}

func TestTriggerStageRejectsUnknownStage(t *testing.T) {
	var hit atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := c.TriggerStage(context.Background(), "ep-1", "mastering"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
	if hit.Load() {
		t.Fatal("client should not have contacted the daemon")
	}
}

func TestTriggerStage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/episodes/ep-1/edit" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusAccepted)
		resp := api.StageTriggerResponse{
			Episode: api.Episode{ID: "ep-1"},
			Job:     api.Job{ID: 7, Stage: "edit", Status: "pending"},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	resp, err := c.TriggerStage(context.Background(), "ep-1", "edit")
	if err != nil {
		t.Fatalf("TriggerStage returned error: %v", err)
	}
	if resp.Job.ID != 7 || resp.Job.Stage != "edit" {
		t.Fatalf("unexpected trigger response %+v", resp)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":  "stage preprocess has not completed (status init)",
			"status": "init",
		})
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = c.GetEpisode(context.Background(), "ep-1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Status != "init" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "has not completed") {
		t.Fatalf("unexpected message %q", apiErr.Error())
	}
}

func TestAPIErrorPlainBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "route not found", http.StatusNotFound)
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	err = c.DeleteEpisode(context.Background(), "ghost")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "route not found" {
		t.Fatalf("unexpected APIError %+v", apiErr)
	}
}

func TestDeleteEpisode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/episodes/ep-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := c.DeleteEpisode(context.Background(), "ep-1"); err != nil {
		t.Fatalf("DeleteEpisode returned error: %v", err)
	}
}

func TestEpisodeJobs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/episodes/ep-1/jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		resp := api.JobListResponse{Jobs: []api.Job{{ID: 1, Stage: "preprocess", Status: "completed"}}}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	defer server.Close()

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	jobs, err := c.EpisodeJobs(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("EpisodeJobs returned error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Stage != "preprocess" {
		t.Fatalf("unexpected jobs %+v", jobs)
	}
}
