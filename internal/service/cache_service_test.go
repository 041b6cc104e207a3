package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/classmanager/backend/pkg/errors"
)

type cacheRepoStub struct {
	values   map[string][]byte
	getErr   error
	setErr   error
	patterns []string
	lastTTL  time.Duration
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	raw, ok := s.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.values == nil {
		s.values = map[string][]byte{}
	}
	s.values[key] = raw
	s.lastTTL = ttl
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func TestCacheServiceGetMissIsNotAnError(t *testing.T) {
	repo := &cacheRepoStub{}
	service := NewCacheService(repo, nil, time.Minute, zap.NewNop())

	var out string
	hit, err := service.Get(context.Background(), "missing", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceGetHit(t *testing.T) {
	repo := &cacheRepoStub{}
	service := NewCacheService(repo, nil, time.Minute, zap.NewNop())
	require.NoError(t, service.Set(context.Background(), "greeting", "hello", 0))

	var out string
	hit, err := service.Get(context.Background(), "greeting", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "hello", out)
	assert.Equal(t, time.Minute, repo.lastTTL, "zero ttl falls back to the default")
}

func TestCacheServiceGetSurfacesRealErrors(t *testing.T) {
	repo := &cacheRepoStub{getErr: errors.New("connection refused")}
	service := NewCacheService(repo, nil, time.Minute, zap.NewNop())

	var out string
	hit, err := service.Get(context.Background(), "key", &out)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabledNoOps(t *testing.T) {
	service := NewCacheService(nil, nil, time.Minute, zap.NewNop())

	assert.False(t, service.Enabled())
	var out string
	hit, err := service.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, service.Set(context.Background(), "key", "v", 0))
	require.NoError(t, service.InvalidateTerm(context.Background(), "term-1"))
}

func TestCacheServiceInvalidateTermCoversTimetableAndDashboard(t *testing.T) {
	repo := &cacheRepoStub{}
	service := NewCacheService(repo, nil, time.Minute, zap.NewNop())

	require.NoError(t, service.InvalidateTerm(context.Background(), "t-1"))
	require.Len(t, repo.patterns, 2)
	assert.Equal(t, TimetableCacheKey("t-1", "*"), repo.patterns[0])
	assert.Equal(t, DashboardCacheKey("t-1")+"*", repo.patterns[1])
}
