package crawl

import (
	"testing"

	"github.com/ternarybob/dropscout/internal/models"
)

func TestFormatCorrelationID(t *testing.T) {
	got := FormatCorrelationID("job_abc-123", models.URLKindProduct, "qi_def-456")
	want := "crawl-job_abc-123-product-qi_def-456"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseCorrelationID_RoundTrip(t *testing.T) {
	tests := []struct {
		jobID  string
		kind   models.URLKind
		itemID string
	}{
		{"job_11111111-1111-1111-1111-111111111111", models.URLKindSearch, "qi_22222222-2222-2222-2222-222222222222"},
		{"job_abc", models.URLKindPagination, "qi_def"},
		{"job_abc", models.URLKindProduct, "qi_def"},
	}
	for _, tt := range tests {
		cid := FormatCorrelationID(tt.jobID, tt.kind, tt.itemID)
		jobID, kind, itemID, err := ParseCorrelationID(cid)
		if err != nil {
			t.Fatalf("ParseCorrelationID(%q) error: %v", cid, err)
		}
		if jobID != tt.jobID || kind != tt.kind || itemID != tt.itemID {
			t.Errorf("ParseCorrelationID(%q) = (%q, %q, %q), want (%q, %q, %q)",
				cid, jobID, kind, itemID, tt.jobID, tt.kind, tt.itemID)
		}
	}
}

func TestParseCorrelationID_Malformed(t *testing.T) {
	tests := []string{
		"",
		"not-a-correlation-id",
		"crawl-missing-kind-marker",
		"crawl--product-item1",  // empty job id
		"crawl-job1-product-",   // empty item id
		"crawl-job1-bogus-item1", // unrecognized kind
	}
	for _, cid := range tests {
		if _, _, _, err := ParseCorrelationID(cid); err == nil {
			t.Errorf("ParseCorrelationID(%q) expected error, got nil", cid)
		}
	}
}

func TestParseCorrelationID_JobIDWithDashes(t *testing.T) {
	// job ids and item ids are themselves uuid-derived and contain dashes;
	// the kind marker must disambiguate correctly.
	cid := "crawl-job_aaaa-bbbb-cccc-product-qi_dddd-eeee"
	jobID, kind, itemID, err := ParseCorrelationID(cid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobID != "job_aaaa-bbbb-cccc" || kind != models.URLKindProduct || itemID != "qi_dddd-eeee" {
		t.Errorf("got (%q, %q, %q)", jobID, kind, itemID)
	}
}
