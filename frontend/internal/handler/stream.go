package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	frontend_domain "github.com/itchan-dev/foro/frontend/internal/domain"
	"github.com/itchan-dev/foro/frontend/internal/live"
	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/itchan-dev/foro/shared/logger"
	mw "github.com/itchan-dev/foro/shared/middleware"
)

const streamKeepAlive = 25 * time.Second

// treeEvent is the data of an "arbol" server-sent event.
type treeEvent struct {
	Version uint64 `json:"version"`
	Total   int    `json:"total"`
	Badge   string `json:"badge"`
	HTML    string `json:"html"`
	Error   string `json:"error,omitempty"`
}

// StreamHandler pushes the forum's reply tree to an open page: once on
// connect and again after every relevant realtime event. The live session
// lasts as long as the request.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	forumID := forumIDParam(r)
	state := h.loadExpandState(r)
	account := mw.GetAccountFromContext(r)
	// flash notices belong to the page, not the stream
	common := frontend_domain.CommonTemplateData{
		Account:    account,
		CSRFToken:  middleware.GetCSRFTokenFromContext(r),
		Validation: h.validationData(),
	}

	session := live.Open(r.Context(), forumID, h.Replies, h.Subscriber)
	defer session.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	send := func(snap live.Snapshot) bool {
		payload, err := h.treeEvent(forumID, snap, state, account, common)
		if err != nil {
			logger.Log.Error("rendering reply tree for stream", "forum", forumID, "error", err)
			return true
		}
		if _, err := fmt.Fprintf(w, "event: arbol\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(session.Snapshot()) {
		return
	}

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-session.Updates():
			if !ok || !send(snap) {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) treeEvent(forumID domain.ForumId, snap live.Snapshot, state *replytree.ExpandState, account *domain.Account, common frontend_domain.CommonTemplateData) ([]byte, error) {
	tree := h.treeFromSnapshot(snap, state, account)
	tree.ForumId = forumID
	fragment, err := h.renderTreeFragment(tree, common)
	if err != nil {
		return nil, err
	}
	return json.Marshal(treeEvent{
		Version: tree.Version,
		Total:   tree.Count,
		Badge:   tree.Badge(),
		HTML:    fragment,
		Error:   tree.Error,
	})
}
