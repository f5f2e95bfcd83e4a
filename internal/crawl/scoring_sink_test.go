package crawl

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/dropscout/internal/models"
)

func TestHTTPScoringSink_Submit_Success(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sink := NewHTTPScoringSink(server.URL, time.Second)
	err := sink.Submit(t.Context(), "job_1", &models.CanonicalProduct{SourceProductID: "p1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/ingest" {
		t.Errorf("got path %q, want /ingest", gotPath)
	}
}

func TestHTTPScoringSink_Submit_RejectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	sink := NewHTTPScoringSink(server.URL, time.Second)
	err := sink.Submit(t.Context(), "job_1", &models.CanonicalProduct{SourceProductID: "p1"})
	if err == nil {
		t.Fatal("expected error for rejected submission")
	}
}
