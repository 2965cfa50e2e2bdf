package handler

import (
	"net/http"

	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/shared/logger"
)

func (h *Handler) ToggleExpandHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)
	replyID := replyIDParam(r)

	state := h.loadExpandState(r)
	state.Toggle(replyID)
	h.saveExpandState(w, forumID, state)
	http.Redirect(w, r, replyAnchor(forumID, replyID), http.StatusSeeOther)
}

// ToggleAllHandler is "expand all / collapse all" over the current tree.
func (h *Handler) ToggleAllHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)

	forest, err := h.Replies.Load(r.Context(), forumID)
	if err != nil {
		logger.Log.Error("loading replies for expand all", "forum", forumID, "error", err)
		h.redirectWithFlash(w, r, forumPath(forumID), middleware.FlashError, userMessage(err))
		return
	}
	state := h.loadExpandState(r)
	state.ToggleAll(forest)
	h.saveExpandState(w, forumID, state)
	http.Redirect(w, r, forumPath(forumID), http.StatusSeeOther)
}
