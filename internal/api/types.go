package api

import (
	"time"

	"marquee/internal/request"
)

// RequestView describes an active request in a transport-friendly format.
type RequestView struct {
	ContentID       string            `json:"contentId"`
	Class           string            `json:"class"`
	Title           string            `json:"title"`
	Thumb           string            `json:"thumb,omitempty"`
	IMDBID          string            `json:"imdbId,omitempty"`
	TMDBID          string            `json:"tmdbId,omitempty"`
	TVDBID          string            `json:"tvdbId,omitempty"`
	Requesters      []string          `json:"requesters"`
	Approved        bool              `json:"approved"`
	AcquisitionRefs map[string]string `json:"acquisitionRefs,omitempty"`
	CreatedAt       string            `json:"createdAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
}

// ArchivedView describes an archived snapshot.
type ArchivedView struct {
	RequestView
	Removed       bool   `json:"removed"`
	RemovedReason string `json:"removedReason,omitempty"`
	Complete      bool   `json:"complete"`
	ArchivedAt    string `json:"archivedAt,omitempty"`
}

// OutcomeView mirrors the orchestrator outcome for upstream callers.
type OutcomeView struct {
	Message string       `json:"message"`
	Error   bool         `json:"error"`
	UserID  string       `json:"user"`
	Request *RequestView `json:"request,omitempty"`
	Quota   *int         `json:"quota,omitempty"`
}

// StatusView summarizes daemon state for the status surface.
type StatusView struct {
	Active   int      `json:"active"`
	Approved int      `json:"approved"`
	Archived int      `json:"archived"`
	Targets  []string `json:"targets"`
}

// FromRequest converts a stored request into its view.
func FromRequest(req *request.Request) *RequestView {
	if req == nil {
		return nil
	}
	return &RequestView{
		ContentID:       req.ContentID,
		Class:           string(req.Class),
		Title:           req.Title,
		Thumb:           req.Thumb,
		IMDBID:          req.IMDBID,
		TMDBID:          req.TMDBID,
		TVDBID:          req.TVDBID,
		Requesters:      append([]string(nil), req.Requesters...),
		Approved:        req.Approved,
		AcquisitionRefs: req.AcquisitionRefs,
		CreatedAt:       formatTime(req.CreatedAt),
		UpdatedAt:       formatTime(req.UpdatedAt),
	}
}

// FromArchived converts an archive snapshot into its view.
func FromArchived(archived *request.Archived) *ArchivedView {
	if archived == nil {
		return nil
	}
	return &ArchivedView{
		RequestView:   *FromRequest(&archived.Request),
		Removed:       archived.Removed,
		RemovedReason: archived.RemovedReason,
		Complete:      archived.Complete,
		ArchivedAt:    formatTime(archived.ArchivedAt),
	}
}

// FromOutcome converts an orchestrator outcome into its view.
func FromOutcome(outcome request.Outcome) *OutcomeView {
	return &OutcomeView{
		Message: outcome.Message,
		Error:   outcome.Error,
		UserID:  outcome.UserID,
		Request: FromRequest(outcome.Request),
		Quota:   outcome.Quota,
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
