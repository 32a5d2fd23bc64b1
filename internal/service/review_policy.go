package service

import (
	"github.com/noah-isme/cahsa-api/internal/models"
	"github.com/noah-isme/cahsa-api/pkg/config"
)

// Default reviewer departments: central advising and IT.
var defaultReviewerDepartments = []int{12, 23}

// ReviewPolicy decides which departments review every request.
type ReviewPolicy struct {
	reviewers   map[int]struct{}
	allowScoped bool
}

// NewReviewPolicy builds the policy from configuration.
func NewReviewPolicy(cfg config.ReviewConfig) ReviewPolicy {
	departments := cfg.ReviewerDepartments
	if len(departments) == 0 {
		departments = defaultReviewerDepartments
	}
	reviewers := make(map[int]struct{}, len(departments))
	for _, d := range departments {
		reviewers[d] = struct{}{}
	}
	return ReviewPolicy{reviewers: reviewers, allowScoped: cfg.AllowScopedReviewers}
}

// IsReviewer reports whether the actor's department reviews all requests.
func (p ReviewPolicy) IsReviewer(actor models.Actor) bool {
	_, ok := p.reviewers[actor.DepartmentID]
	return ok
}

// AllowsScopedReview reports whether scope-limited departments may decide
// requests inside their program scope.
func (p ReviewPolicy) AllowsScopedReview() bool {
	return p.allowScoped
}
