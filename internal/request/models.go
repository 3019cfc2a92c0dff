package request

import (
	"strings"
	"time"
)

// ContentClass determines which acquisition-target family a request uses.
type ContentClass string

const (
	ClassMovie  ContentClass = "movie"
	ClassSeries ContentClass = "series"
)

// ParseContentClass converts a string into a known ContentClass. The "tv"
// alias is accepted for compatibility with upstream callers.
func ParseContentClass(value string) (ContentClass, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie":
		return ClassMovie, true
	case "series", "tv":
		return ClassSeries, true
	default:
		return "", false
	}
}

// Request is an active record representing one or more users wanting a piece
// of content. ContentID is the unique key across the active store.
type Request struct {
	ContentID string
	Class     ContentClass
	Title     string
	Thumb     string
	IMDBID    string
	TMDBID    string
	TVDBID    string
	// Requesters holds user ids ordered by first-request time; a user
	// appears at most once.
	Requesters []string
	Approved   bool
	// AcquisitionRefs maps an acquisition target id to the id returned by
	// that target's submit call.
	AcquisitionRefs map[string]string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasRequester reports whether the user already appears on the request.
func (r *Request) HasRequester(userID string) bool {
	for _, id := range r.Requesters {
		if id == userID {
			return true
		}
	}
	return false
}

// Archived is the immutable terminal snapshot of a request.
type Archived struct {
	Request
	Removed       bool
	RemovedReason string
	Complete      bool
	ArchivedAt    time.Time
}

// User is a quota-tracked identity. ProfileID may be empty, meaning no
// profile applies (unlimited quota, no auto-approval, all targets).
type User struct {
	ID         string
	Name       string
	Email      string
	ProfileID  string
	QuotaCount int
}

// Admin is an identity with unlimited quota and no profile.
type Admin struct {
	ID    string
	Name  string
	Email string
}

// Identity is the resolved requester: exactly one of User or Admin is set
// when known.
type Identity struct {
	User  *User
	Admin *Admin
}

// Known reports whether the identity resolved to a user or admin record.
func (i Identity) Known() bool { return i.User != nil || i.Admin != nil }

// Unlimited reports whether the identity bypasses quota accounting entirely.
func (i Identity) Unlimited() bool { return i.Admin != nil }

// DisplayName returns the human-readable name for the identity.
func (i Identity) DisplayName() string {
	switch {
	case i.User != nil:
		return i.User.Name
	case i.Admin != nil:
		return i.Admin.Name
	default:
		return ""
	}
}

// Email returns the contact address for the identity, if any.
func (i Identity) Email() string {
	switch {
	case i.User != nil:
		return i.User.Email
	case i.Admin != nil:
		return i.Admin.Email
	default:
		return ""
	}
}

// Profile carries quota and dispatch policy. QuotaCap of zero means
// unlimited. EnabledTargets maps a content class to the set of acquisition
// target ids requests of that class are dispatched to; a missing class map
// means no targets for that class.
type Profile struct {
	ID             string
	Name           string
	QuotaCap       int
	AutoApprove    bool
	EnabledTargets map[ContentClass]map[string]bool
}

// Outcome is the result reported to the upstream caller. Quota is set only
// when a real (non-admin) quota increment occurred.
type Outcome struct {
	Message string
	Error   bool
	UserID  string
	Request *Request
	Quota   *int
}
