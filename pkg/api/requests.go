// Package api defines the shared request/response contracts for the graph service.
package api

// GraphResponse is returned by the graph build endpoint.
type GraphResponse struct {
	BuildID   string       `json:"build_id"`
	NetworkID string       `json:"network_id,omitempty"`
	Graph     any          `json:"graph"`
	Summary   GraphSummary `json:"summary"`
	Location  string       `json:"location,omitempty"`
	Warnings  []Warning    `json:"warnings,omitempty"`
}

// Warning describes an inventory record that was skipped during a build.
type Warning struct {
	Code       string `json:"code"`
	Category   string `json:"category"`
	Index      int    `json:"index"`
	ResourceID string `json:"resource_id,omitempty"`
	Message    string `json:"message"`
}

// GraphSummary mirrors the counts printed after a build. Kinds is filled
// by the service only.
type GraphSummary struct {
	Nodes int              `json:"nodes"`
	Edges int              `json:"edges"`
	Kinds map[EdgeKind]int `json:"kinds,omitempty"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
