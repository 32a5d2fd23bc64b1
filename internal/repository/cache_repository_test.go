package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/cahsa-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	require.False(t, repo.Enabled())
	var dest map[string]string
	require.ErrorIs(t, repo.Get(ctx, "student:1234567", &dest), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "student:1234567", map[string]string{"pid": "1234567"}, time.Minute))
	require.NoError(t, repo.Delete(ctx, "student:1234567"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}
