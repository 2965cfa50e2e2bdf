package handler

import (
	"net/http"

	frontend_domain "github.com/itchan-dev/foro/frontend/internal/domain"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/itchan-dev/foro/shared/logger"
	mw "github.com/itchan-dev/foro/shared/middleware"
)

func (h *Handler) RootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/foros", http.StatusSeeOther)
}

func (h *Handler) ForumsGetHandler(w http.ResponseWriter, r *http.Request) {
	var data frontend_domain.ForumListPageData
	forums, err := h.API.ListForums(r.Context())
	if err != nil {
		logger.Log.Error("listing forums", "error", err)
		h.renderTemplateWithError(w, r, "forums.html", &data, userMessage(err), errorStatus(err))
		return
	}
	data.Forums = forums
	h.renderTemplate(w, r, "forums.html", &data)
}

func (h *Handler) ForumGetHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)
	forum, err := h.API.GetForum(r.Context(), forumID)
	if err != nil {
		logger.Log.Warn("loading forum", "forum", forumID, "error", err)
		var list frontend_domain.ForumListPageData
		h.renderTemplateWithError(w, r, "forums.html", &list, userMessage(err), errorStatus(err))
		return
	}

	data := frontend_domain.ForumPageData{
		Forum:     forum,
		EditingId: domain.ReplyId(r.URL.Query().Get("editar")),
	}
	forest, err := h.Replies.Load(r.Context(), forumID)
	if err != nil {
		logger.Log.Error("loading replies", "forum", forumID, "error", err)
		data.LoadError = userMessage(err)
	} else {
		data.Tree = h.buildReplyTree(forumID, forest, h.loadExpandState(r), mw.GetAccountFromContext(r))
	}

	w.Header().Set("Cache-Control", "no-store")
	h.renderTemplate(w, r, "forum.html", &data)
}

// errorStatus maps err to the page status; gateway 5xx become 502.
func errorStatus(err error) int {
	status := internal_errors.StatusCode(err)
	switch {
	case status < 400:
		return http.StatusInternalServerError
	case status >= 500:
		return http.StatusBadGateway
	}
	return status
}
