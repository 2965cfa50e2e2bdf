package replytree

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSource implements Source
type MockSource struct {
	MockGetReplyTree func(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error)
	MockListReplies  func(ctx context.Context, forumID domain.ForumId) ([]domain.ReplyRecord, error)

	treeCalls, listCalls int
}

func (m *MockSource) GetReplyTree(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error) {
	m.treeCalls++
	if m.MockGetReplyTree != nil {
		return m.MockGetReplyTree(ctx, forumID)
	}
	return []*domain.ReplyNode{}, nil
}

func (m *MockSource) ListReplies(ctx context.Context, forumID domain.ForumId) ([]domain.ReplyRecord, error) {
	m.listCalls++
	if m.MockListReplies != nil {
		return m.MockListReplies(ctx, forumID)
	}
	return nil, nil
}

var errServer = &internal_errors.ErrorWithStatusCode{Message: "boom", StatusCode: http.StatusInternalServerError}

func TestFetcherLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("tree endpoint wins", func(t *testing.T) {
		src := &MockSource{MockGetReplyTree: func(_ context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error) {
			assert.Equal(t, domain.ForumId("F1"), forumID)
			return []*domain.ReplyNode{nested("R1", node("R2"))}, nil
		}}
		forest, err := NewFetcher(src, false).Load(ctx, "F1")
		require.NoError(t, err)
		assert.Equal(t, 2, Count(forest))
		assert.Equal(t, 0, src.listCalls)
	})

	t.Run("empty forum", func(t *testing.T) {
		src := &MockSource{MockGetReplyTree: func(context.Context, domain.ForumId) ([]*domain.ReplyNode, error) {
			return nil, nil
		}}
		forest, err := NewFetcher(src, false).Load(ctx, "F1")
		require.NoError(t, err)
		assert.NotNil(t, forest)
		assert.Equal(t, 0, Count(forest))
	})

	t.Run("falls back to flat list", func(t *testing.T) {
		src := &MockSource{
			MockGetReplyTree: func(context.Context, domain.ForumId) ([]*domain.ReplyNode, error) { return nil, errServer },
			MockListReplies: func(context.Context, domain.ForumId) ([]domain.ReplyRecord, error) {
				return []domain.ReplyRecord{rec("R1", ""), rec("R2", "R1")}, nil
			},
		}
		forest, err := NewFetcher(src, false).Load(ctx, "F1")
		require.NoError(t, err)
		assert.Equal(t, []string{"R1", "R2"}, shape(forest), "flattened")
		assert.Equal(t, 1, src.listCalls)
	})

	t.Run("fallback can nest", func(t *testing.T) {
		src := &MockSource{
			MockGetReplyTree: func(context.Context, domain.ForumId) ([]*domain.ReplyNode, error) { return nil, errServer },
			MockListReplies: func(context.Context, domain.ForumId) ([]domain.ReplyRecord, error) {
				return []domain.ReplyRecord{rec("R1", ""), rec("R2", "R1")}, nil
			},
		}
		forest, err := NewFetcher(src, true).Load(ctx, "F1")
		require.NoError(t, err)
		assert.Equal(t, []string{"R1(R2)"}, shape(forest))
	})

	t.Run("both fail", func(t *testing.T) {
		src := &MockSource{
			MockGetReplyTree: func(context.Context, domain.ForumId) ([]*domain.ReplyNode, error) { return nil, errServer },
			MockListReplies: func(context.Context, domain.ForumId) ([]domain.ReplyRecord, error) {
				return nil, errors.New("connection refused")
			},
		}
		_, err := NewFetcher(src, false).Load(ctx, "F1")
		require.Error(t, err)
		assert.ErrorIs(t, err, internal_errors.ErrRepliesUnavailable)
		assert.Equal(t, http.StatusBadGateway, internal_errors.StatusCode(err))
		assert.Equal(t, "replies could not be loaded", err.Error())
	})

	t.Run("cancelled context skips fallback", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		src := &MockSource{MockGetReplyTree: func(ctx context.Context, _ domain.ForumId) ([]*domain.ReplyNode, error) {
			return nil, ctx.Err()
		}}
		_, err := NewFetcher(src, false).Load(cctx, "F1")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, src.listCalls)
	})
}
