package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cahsa-api/internal/models"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
)

const programCacheName = "program_directory"

type programStore interface {
	DescriptionsForDepartment(ctx context.Context, departmentID int) ([]string, error)
}

// ProgramDirectoryService maps departments to the program names they review.
type ProgramDirectoryService struct {
	repo   programStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewProgramDirectoryService constructs the service. cache may be nil.
func NewProgramDirectoryService(repo programStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ProgramDirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramDirectoryService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ProgramsForDepartment returns the distinct program names of a department.
func (s *ProgramDirectoryService) ProgramsForDepartment(ctx context.Context, departmentID int) ([]string, error) {
	key := fmt.Sprintf("cahsa:programs:%d", departmentID)
	var cached []string
	if s.cache.Get(ctx, programCacheName, key, &cached) {
		return cached, nil
	}

	descriptions, err := s.repo.DescriptionsForDepartment(ctx, departmentID)
	if err != nil {
		return nil, appErrors.Internal(err, fmt.Sprintf("unable to list programs for department %d", departmentID))
	}

	seen := make(map[string]struct{}, len(descriptions))
	programs := make([]string, 0, len(descriptions))
	for _, d := range descriptions {
		name := models.ProgramName(d)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		programs = append(programs, name)
	}

	s.cache.Set(ctx, programCacheName, key, programs, s.ttl)
	return programs, nil
}
