package replytree

import (
	"context"
	"fmt"
	"net/http"

	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/itchan-dev/foro/shared/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fallbackTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "foro_reply_tree_fallback_total",
		Help: "Reply tree loads served from the flat list, by result",
	},
	[]string{"result"},
)

// Source is the part of the gateway client the fetcher needs.
type Source interface {
	GetReplyTree(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error)
	ListReplies(ctx context.Context, forumID domain.ForumId) ([]domain.ReplyRecord, error)
}

// Fetcher loads a forum's reply tree, falling back to the flat list when
// the tree endpoint fails.
type Fetcher struct {
	Source Source
	// Nest rebuilds nesting in the fallback instead of listing every reply
	// at top level.
	Nest bool
}

func NewFetcher(source Source, nest bool) *Fetcher {
	return &Fetcher{Source: source, Nest: nest}
}

// Load returns the forest for forumID. It fails only when both endpoints
// fail, with a 502 ErrorWithStatusCode wrapping ErrRepliesUnavailable.
func (f *Fetcher) Load(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error) {
	forest, treeErr := f.Source.GetReplyTree(ctx, forumID)
	if treeErr == nil {
		if forest == nil {
			forest = []*domain.ReplyNode{}
		}
		return forest, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logger.Log.Warn("reply tree endpoint failed, using flat list",
		"forum", forumID, "error", treeErr)

	records, listErr := f.Source.ListReplies(ctx, forumID)
	if listErr != nil {
		fallbackTotal.WithLabelValues("failed").Inc()
		logger.Log.Error("flat reply list failed too",
			"forum", forumID, "tree_error", treeErr, "list_error", listErr)
		return nil, &internal_errors.ErrorWithStatusCode{
			Message:    internal_errors.ErrRepliesUnavailable.Error(),
			StatusCode: http.StatusBadGateway,
			Err:        fmt.Errorf("%w: tree: %v; list: %w", internal_errors.ErrRepliesUnavailable, treeErr, listErr),
		}
	}

	fallbackTotal.WithLabelValues("served").Inc()
	if f.Nest {
		return Nest(records), nil
	}
	return FromFlat(records), nil
}
