package middleware

import (
	"encoding/json"
	"net/http"

	"salespulse/internal/infrastructure"
)

// Problem is the RFC 7807 body written by middleware that answers before a
// handler runs
type Problem struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Status  int    `json:"status"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, slug, detail string) {
	p := Problem{
		Type:    "/errors/" + slug,
		Title:   http.StatusText(status),
		Status:  status,
		Detail:  detail,
		TraceID: infrastructure.GetTraceID(r.Context()),
	}
	if p.TraceID == "" {
		p.TraceID = GetReqID(r.Context())
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}
