package models

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the review state of a substitution request.
type RequestStatus string

const (
	StatusPending      RequestStatus = "pending"
	StatusProcessed    RequestStatus = "processed"
	StatusNotProcessed RequestStatus = "not processed"
	StatusSentBack     RequestStatus = "sent back"
)

// ParseRequestStatus accepts any casing and surrounding whitespace.
func ParseRequestStatus(raw string) (RequestStatus, error) {
	switch s := RequestStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusProcessed, StatusNotProcessed, StatusSentBack:
		return s, nil
	default:
		return "", fmt.Errorf("unknown request status %q", raw)
	}
}

// Label is the human readable form used in subjects and exports.
func (s RequestStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusProcessed:
		return "Processed"
	case StatusNotProcessed:
		return "Not Processed"
	case StatusSentBack:
		return "Sent Back"
	default:
		return string(s)
	}
}

// IsOpen reports whether the request may still be edited or reviewed.
func (s RequestStatus) IsOpen() bool {
	switch s {
	case StatusPending, StatusSentBack:
		return true
	case StatusProcessed, StatusNotProcessed:
		return false
	default:
		return false
	}
}

// IsOutcome reports whether s is a valid reviewer decision.
func (s RequestStatus) IsOutcome() bool {
	switch s {
	case StatusProcessed, StatusNotProcessed, StatusSentBack:
		return true
	case StatusPending:
		return false
	default:
		return false
	}
}

// RequiresReason reports whether a reviewer must explain the decision.
func (s RequestStatus) RequiresReason() bool {
	return s != StatusProcessed
}

// Focus selects whether a substitution counts toward a major or a minor.
type Focus string

const (
	FocusMajor Focus = "major"
	FocusMinor Focus = "minor"
)

// BuildAudit composes the audit category, e.g. "Major - Anthropology BA".
func BuildAudit(focus Focus, track string) string {
	switch focus {
	case FocusMinor:
		return "Minor - " + track
	default:
		return "Major - " + track
	}
}

// ParseAudit recovers focus and track from a stored audit category.
func ParseAudit(audit string) (Focus, string) {
	audit = strings.TrimSpace(audit)
	for _, focus := range []Focus{FocusMajor, FocusMinor} {
		prefix := BuildAudit(focus, "")
		if strings.HasPrefix(audit, prefix) {
			return focus, audit[len(prefix):]
		}
		if audit == strings.TrimSpace(prefix) {
			return focus, ""
		}
	}
	return "", ""
}

// DisplayAudit drops the dangling separator left when no track was given.
func DisplayAudit(audit string) string {
	return strings.TrimSuffix(audit, " - ")
}

// SubstitutionRequest is one student's request to substitute one course.
// Name and Email are a snapshot of the student directory taken on every save.
type SubstitutionRequest struct {
	ID        string `db:"id" json:"id"`
	Requestor string `db:"requestor" json:"requestor"`
	PID       string `db:"pid" json:"pid"`
	Name      string `db:"name" json:"name"`
	Email     string `db:"email" json:"email"`
	Year      string `db:"year" json:"year"`
	Program   string `db:"program" json:"program"`
	Major     string `db:"major" json:"major"`
	Minor     string `db:"minor" json:"minor"`

	OPrefix   string `db:"oprefix" json:"oprefix"`
	ONumber   string `db:"onumber" json:"onumber"`
	OTitle    string `db:"otitle" json:"otitle"`
	OHours    int    `db:"ohours" json:"ohours"`
	OGrade    string `db:"ograde" json:"ograde"`
	OSemester string `db:"osemester" json:"osemester"`
	OType     string `db:"otype" json:"otype"`

	UPrefix string `db:"uprefix" json:"uprefix"`
	UNumber string `db:"unumber" json:"unumber"`
	UOther  string `db:"uother" json:"uother"`
	RG      string `db:"rg" json:"rg"`
	RQ      string `db:"rq" json:"rq"`
	LN      string `db:"ln" json:"ln"`
	UHours  int    `db:"uhours" json:"uhours"`

	TransferRule bool      `db:"transfer_rule" json:"transferRule"`
	Comments     string    `db:"comments" json:"comments"`
	UAudit       string    `db:"uaudit" json:"uaudit"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Focus derives the focus from whichever of major/minor is set.
func (r *SubstitutionRequest) Focus() Focus {
	if r.Minor != "" && r.Major == "" {
		return FocusMinor
	}
	return FocusMajor
}

// Track returns the populated major or minor.
func (r *SubstitutionRequest) Track() string {
	if r.Focus() == FocusMinor {
		return r.Minor
	}
	return r.Major
}

// SetTrack stores track under the chosen focus and refreshes the audit string.
func (r *SubstitutionRequest) SetTrack(focus Focus, track string) {
	r.Major, r.Minor = "", ""
	if focus == FocusMinor {
		r.Minor = track
	} else {
		r.Major = track
	}
	r.UAudit = BuildAudit(focus, track)
}

// RequestStatusRecord is the single mutable status row of a request.
type RequestStatusRecord struct {
	RequestID  string        `db:"request_id" json:"requestId"`
	Status     RequestStatus `db:"status" json:"status"`
	Reason     string        `db:"reason" json:"reason"`
	Time       time.Time     `db:"time" json:"time"`
	ReviewedBy *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
}

// RequestRecord joins a request with its status row.
type RequestRecord struct {
	SubstitutionRequest
	Status     RequestStatus `db:"status" json:"status"`
	Reason     string        `db:"reason" json:"reason"`
	StatusTime time.Time     `db:"status_time" json:"statusTime"`
	ReviewedBy *string       `db:"reviewed_by" json:"reviewedBy,omitempty"`
}

// RequestSummary is one row of a request listing.
type RequestSummary struct {
	ID            string        `db:"id" json:"id"`
	PID           string        `db:"pid" json:"pid"`
	Name          string        `db:"name" json:"name"`
	Major         string        `db:"major" json:"major"`
	Minor         string        `db:"minor" json:"minor"`
	UAudit        string        `db:"uaudit" json:"uaudit"`
	Requestor     string        `db:"requestor" json:"requestor"`
	RequestorName string        `db:"requestor_name" json:"requestorName"`
	Status        RequestStatus `db:"status" json:"status"`
	Reason        string        `db:"reason" json:"reason"`
	StatusTime    time.Time     `db:"status_time" json:"statusTime"`
}

// RequestFilter constrains request listings. Scope is applied after the
// store query.
type RequestFilter struct {
	Statuses []RequestStatus
	PID      string
}
