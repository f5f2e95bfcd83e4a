package crawl

import (
	"fmt"
	"strings"

	"github.com/ternarybob/dropscout/internal/models"
)

// correlationKinds enumerates the kind tokens embedded in a correlation id,
// in the canonical form the Catalog Parser and Webhook Handler recognize.
var correlationKinds = []models.URLKind{
	models.URLKindSearch,
	models.URLKindPagination,
	models.URLKindProduct,
}

// FormatCorrelationID builds the fetcher correlation id of the shape
// crawl-{job_id}-{kind}-{item_id} (spec.md §4.3, §6).
func FormatCorrelationID(jobID string, kind models.URLKind, itemID string) string {
	return fmt.Sprintf("crawl-%s-%s-%s", jobID, kind, itemID)
}

// ParseCorrelationID recovers (jobID, kind, itemID) from a correlation id.
// job_id and item_id are themselves uuid-derived strings containing
// dashes, so a naive split on "-" is ambiguous; instead we locate the
// unambiguous "-{kind}-" marker (kind is drawn from a small alphabetic
// set that cannot occur inside a hex uuid) and split around it. Malformed
// ids return an error; callers must acknowledge with 200 OK rather than
// propagate it to the fetcher (spec.md §4.4 step 1).
func ParseCorrelationID(correlationID string) (jobID string, kind models.URLKind, itemID string, err error) {
	const prefix = "crawl-"
	if !strings.HasPrefix(correlationID, prefix) {
		return "", "", "", fmt.Errorf("correlation id missing %q prefix: %q", prefix, correlationID)
	}
	rest := strings.TrimPrefix(correlationID, prefix)

	for _, k := range correlationKinds {
		marker := "-" + string(k) + "-"
		idx := strings.Index(rest, marker)
		if idx < 0 {
			continue
		}
		jobID = rest[:idx]
		itemID = rest[idx+len(marker):]
		if jobID == "" || itemID == "" {
			return "", "", "", fmt.Errorf("correlation id has empty job or item segment: %q", correlationID)
		}
		return jobID, k, itemID, nil
	}

	return "", "", "", fmt.Errorf("correlation id has no recognized url kind: %q", correlationID)
}
