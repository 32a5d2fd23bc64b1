package dto

import (
	"time"

	"github.com/noah-isme/cahsa-api/internal/models"
)

// RequestPayload carries the editable fields of a substitution request for
// both create and update.
type RequestPayload struct {
	PID          string       `json:"pid" validate:"required,len=7,numeric"`
	Year         string       `json:"year" validate:"omitempty,oneof=Freshman Sophomore Junior Senior"`
	Program      string       `json:"program" validate:"max=255"`
	Focus        models.Focus `json:"focus" validate:"omitempty,oneof=major minor"`
	Track        string       `json:"track" validate:"required,max=255"`
	OPrefix      string       `json:"oprefix" validate:"required,max=3"`
	ONumber      string       `json:"onumber" validate:"required,max=16"`
	OTitle       string       `json:"otitle" validate:"max=255"`
	OHours       *int         `json:"ohours" validate:"required,gte=0"`
	OGrade       string       `json:"ograde" validate:"max=3"`
	OSemester    string       `json:"osemester" validate:"required,max=32"`
	OType        string       `json:"otype" validate:"max=64"`
	UPrefix      string       `json:"uprefix" validate:"max=3"`
	UNumber      string       `json:"unumber" validate:"max=16"`
	UOther       string       `json:"uother" validate:"max=255"`
	RG           string       `json:"rg" validate:"max=4"`
	RQ           string       `json:"rq" validate:"max=4"`
	LN           string       `json:"ln" validate:"max=4"`
	UHours       int          `json:"uhours" validate:"gte=0"`
	TransferRule bool         `json:"transferRule"`
	Comments     string       `json:"comments" validate:"max=4000"`
}

// TransitionPayload is a reviewer decision.
type TransitionPayload struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=2000"`
}

// RequestQuery mirrors supported listing filters.
type RequestQuery struct {
	Status string
	PID    string
}

// RequestPermissions tells the caller which actions the actor may take.
type RequestPermissions struct {
	CanEdit       bool `json:"canEdit"`
	CanTransition bool `json:"canTransition"`
}

// RequestDetail is the single request view.
type RequestDetail struct {
	Request       *models.RequestRecord `json:"request"`
	Focus         models.Focus          `json:"focus"`
	Track         string                `json:"track"`
	AuditCategory string                `json:"auditCategory"`
	RequestorName string                `json:"requestorName,omitempty"`
	Permissions   RequestPermissions    `json:"permissions"`
}

// Transition outcomes.
const (
	OutcomeNotified           = "notified"
	OutcomeNotificationFailed = "notification_failed"
)

// TransitionResult reports a persisted status change and whether the
// follow-up notification went out.
type TransitionResult struct {
	Request  *models.RequestRecord `json:"request"`
	Outcome  string                `json:"outcome"`
	Notified bool                  `json:"notified"`
}

// ExportFile is a rendered listing export.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
	GeneratedAt time.Time
}
