// -----------------------------------------------------------------------
// Last Modified: Thursday, 9th October 2025 8:53:55 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import "net/http"

// setupRoutes configures all HTTP routes (spec.md §6, "External
// interfaces"): the fetcher's webhook ingress, the admin job/exclusion
// surface, and operator health/metrics endpoints.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Fetcher webhook ingress - the only route the third-party fetcher
	// service calls back into.
	mux.HandleFunc("/crawl/webhook", s.app.WebhookHandler.Handle)

	// Admin - job lifecycle
	mux.HandleFunc("/crawl/start", s.app.CrawlHandler.StartJob)
	mux.HandleFunc("/crawl/jobs", s.app.CrawlHandler.ListJobs)
	mux.HandleFunc("/crawl/", s.handleJobRoutes)

	// Admin - persistent exclusion rules
	mux.HandleFunc("/exclusions", s.handleExclusionsRoute)
	mux.HandleFunc("/exclusions/", s.handleExclusionRoutes)

	// Operator visibility
	mux.HandleFunc("/metrics", s.app.MetricsHandler.Handle)
	if s.app.HealthHandler != nil {
		mux.HandleFunc("/crawl/health", s.app.HealthHandler.Handle)
	}
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler)

	return mux
}

// handleJobRoutes routes GET/DELETE /crawl/{job_id} and
// GET /crawl/{job_id}/logs. It serves the "/crawl/" prefix; ServeMux
// prefers the longer exact patterns such as "/crawl/start" and
// "/crawl/jobs", whatever the registration order.
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	const prefix = "/crawl/"
	if len(path) <= len(prefix) {
		http.NotFound(w, r)
		return
	}
	suffix := path[len(prefix):]

	if len(suffix) > len("/logs") && suffix[len(suffix)-len("/logs"):] == "/logs" {
		jobID := suffix[:len(suffix)-len("/logs")]
		if r.Method == http.MethodGet {
			s.app.CrawlHandler.GetLogs(w, r, jobID)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := suffix
	switch r.Method {
	case http.MethodGet:
		s.app.CrawlHandler.GetJob(w, r, jobID)
	case http.MethodDelete:
		s.app.CrawlHandler.CancelJob(w, r, jobID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleExclusionsRoute routes GET/POST /exclusions.
func (s *Server) handleExclusionsRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.ExclusionHandler.List(w, r)
	case http.MethodPost:
		s.app.ExclusionHandler.Add(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleExclusionRoutes routes DELETE /exclusions/{id}.
func (s *Server) handleExclusionRoutes(w http.ResponseWriter, r *http.Request) {
	const prefix = "/exclusions/"
	if len(r.URL.Path) <= len(prefix) {
		http.NotFound(w, r)
		return
	}
	ruleID := r.URL.Path[len(prefix):]

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.app.ExclusionHandler.Delete(w, r, ruleID)
}
