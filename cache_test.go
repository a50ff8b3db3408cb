package blogfront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/blogfront/domain"
)

type countingSource struct {
	calls   int
	offline bool
	err     error
}

func (s *countingSource) ListPosts(_ context.Context, q domain.ListQuery) (domain.PostPage, error) {
	s.calls++
	if s.err != nil {
		return domain.PostPage{}, s.err
	}
	return domain.PostPage{
		Items:      []domain.BlogPost{{ID: int64(s.calls), Title: "p"}},
		Page:       q.Page,
		TotalPages: 1,
		Offline:    s.offline,
	}, nil
}

func TestFeedCacheHonoursTTLAndInvalidate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &countingSource{}
	cache := NewFeedCache(src, time.Minute, clock)
	ctx := context.Background()

	first, err := cache.Recent(ctx)
	require.NoError(t, err)
	_, err = cache.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	clock.Advance(time.Minute)
	again, err := cache.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
	assert.NotEqual(t, first[0].ID, again[0].ID)

	cache.Invalidate()
	_, err = cache.Recent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestFeedCacheSkipsOfflinePagesAndErrors(t *testing.T) {
	src := &countingSource{offline: true}
	cache := NewFeedCache(src, time.Hour, clockwork.NewFakeClock())
	ctx := context.Background()

	posts, err := cache.Recent(ctx)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	_, _ = cache.Recent(ctx)
	assert.Equal(t, 2, src.calls)

	src.err = errors.New("down")
	_, err = cache.Recent(ctx)
	assert.Error(t, err)
}
