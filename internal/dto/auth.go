package dto

import (
	"time"

	"github.com/noah-isme/cahsa-api/internal/models"
)

// LoginRequest holds directory credentials.
type LoginRequest struct {
	NID       string `json:"nid" validate:"required,max=32"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and advisor profile.
type LoginResponse struct {
	AccessToken string         `json:"accessToken"`
	ExpiresIn   int64          `json:"expiresIn"`
	IssuedAt    time.Time      `json:"issuedAt"`
	Advisor     models.Advisor `json:"advisor"`
	IsReviewer  bool           `json:"isReviewer"`
}

// CurrentActor describes the caller of GET /auth/me.
type CurrentActor struct {
	Actor      models.Actor `json:"actor"`
	NID        string       `json:"nid"`
	Name       string       `json:"name"`
	IsReviewer bool         `json:"isReviewer"`
}
