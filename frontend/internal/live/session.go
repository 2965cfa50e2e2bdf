// Package live keeps an open forum page in step with the broadcast channel.
package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/itchan-dev/foro/frontend/internal/realtime"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/itchan-dev/foro/shared/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var refetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "foro_live_refetch_total",
		Help: "Reply tree refetches triggered by realtime events, by outcome",
	},
	[]string{"outcome"},
)

type Loader interface {
	Load(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error)
}

// Snapshot is the page state after a load. Err is set when the last load
// failed; Forest then still holds the last good tree.
type Snapshot struct {
	ForumId domain.ForumId
	Forest  []*domain.ReplyNode
	Count   int
	Version uint64
	Err     error
}

// Session follows one forum for one page. Events are handled one at a time
// by a single goroutine, and events that queue up while a refetch runs are
// folded into the next refetch.
type Session struct {
	forumID domain.ForumId
	loader  Loader
	sub     *realtime.Subscription
	log     *slog.Logger

	updates chan Snapshot
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once

	mu      sync.RWMutex
	current Snapshot
}

// Open subscribes, loads the forum's tree and starts the event loop. The
// subscription is taken before the initial load so that no change made
// during it is missed. The session ends with ctx or Close.
func Open(ctx context.Context, forumID domain.ForumId, loader Loader, subscriber realtime.Subscriber) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		forumID: forumID,
		loader:  loader,
		sub:     subscriber.Subscribe(),
		log:     logger.Component("live").With("forum", forumID),
		updates: make(chan Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
		current: Snapshot{ForumId: forumID, Forest: []*domain.ReplyNode{}},
	}

	forest, err := loader.Load(ctx, forumID)
	s.apply(forest, err)

	go s.run(ctx)
	return s
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Updates delivers the newest snapshot after each refetch. Older unread
// snapshots are replaced. The channel is closed when the session ends.
func (s *Session) Updates() <-chan Snapshot {
	return s.updates
}

// Close unsubscribes and waits for the event loop. A refetch still in
// flight is cancelled and its result discarded.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		s.sub.Close()
	})
	<-s.done
}

// Done is closed once the event loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)
	defer s.sub.Close()

	events := s.sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			folded, open := s.drain(events)
			// The queue was full at some point, so a relevant event may
			// have been dropped. Refetch to be safe.
			overflowed := s.sub.TakeOverflow()
			if Relevant(ev, s.forumID) || folded > 0 || overflowed {
				s.log.Debug("refetching reply tree", "tipo", ev.Type, "folded", folded, "overflowed", overflowed)
				s.refetch(ctx)
			}
			if !open {
				return
			}
		}
	}
}

// drain takes every event already queued. It reports how many were
// relevant and whether the subscription is still open.
func (s *Session) drain(events <-chan domain.ReplyEvent) (relevant int, open bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return relevant, false
			}
			if Relevant(ev, s.forumID) {
				relevant++
			}
		default:
			return relevant, true
		}
	}
}

func (s *Session) refetch(ctx context.Context) {
	forest, err := s.loader.Load(ctx, s.forumID)
	if ctx.Err() != nil {
		refetchTotal.WithLabelValues("discarded").Inc()
		return
	}
	if err != nil {
		refetchTotal.WithLabelValues("error").Inc()
		s.log.Error("refetch after realtime event failed", "error", err)
	} else {
		refetchTotal.WithLabelValues("ok").Inc()
	}
	snap := s.apply(forest, err)

	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

func (s *Session) apply(forest []*domain.ReplyNode, err error) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Version++
	s.current.Err = err
	if err == nil {
		if forest == nil {
			forest = []*domain.ReplyNode{}
		}
		s.current.Forest = forest
		s.current.Count = replytree.Count(forest)
	}
	return s.current
}

// Relevant reports whether ev requires the page of forumID to refetch.
// New replies must name the forum. Edits and deletes may arrive with only
// the reply id, so those refetch unless they name another forum.
func Relevant(ev domain.ReplyEvent, forumID domain.ForumId) bool {
	id, ok := ev.ForumId()
	switch ev.Kind() {
	case domain.KindCreated:
		return ok && id == forumID
	case domain.KindEdited, domain.KindDeleted:
		return !ok || id == forumID
	default:
		return false
	}
}
