package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cahsa-api/internal/models"
	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
)

const studentCacheName = "student_directory"

type studentDirectory interface {
	FindByPID(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error)
}

// StudentDirectoryService resolves student PIDs, caching hits in Redis.
type StudentDirectoryService struct {
	repo   studentDirectory
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewStudentDirectoryService constructs the service. cache may be nil.
func NewStudentDirectoryService(repo studentDirectory, cache *CacheService, ttl time.Duration, logger *zap.Logger) *StudentDirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentDirectoryService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Lookup returns the directory entry for pid or a NOT_FOUND error.
func (s *StudentDirectoryService) Lookup(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error) {
	key := studentCacheKey(pid)
	var cached models.StudentDirectoryEntry
	if s.cache.Get(ctx, studentCacheName, key, &cached) {
		return &cached, nil
	}

	entry, err := s.repo.FindByPID(ctx, pid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no student found with PID %s", pid))
		}
		return nil, appErrors.Internal(err, "failed to look up student")
	}

	s.cache.Set(ctx, studentCacheName, key, entry, s.ttl)
	return entry, nil
}

// Refresh drops any cached entry for pid and reads it from the directory.
func (s *StudentDirectoryService) Refresh(ctx context.Context, pid string) (*models.StudentDirectoryEntry, error) {
	s.cache.Invalidate(ctx, studentCacheKey(pid))
	return s.Lookup(ctx, pid)
}

func studentCacheKey(pid string) string {
	return "cahsa:student:" + pid
}
