package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/itchan-dev/foro/shared/logger"
)

const expandCookie = "expandidos"

func forumIDParam(r *http.Request) domain.ForumId {
	return domain.ForumId(chi.URLParam(r, "forumID"))
}

func replyIDParam(r *http.Request) domain.ReplyId {
	return domain.ReplyId(chi.URLParam(r, "replyID"))
}

func forumPath(forumID domain.ForumId) string {
	return "/foros/" + url.PathEscape(forumID.String())
}

func replyAnchor(forumID domain.ForumId, replyID domain.ReplyId) string {
	if replyID.IsZero() {
		return forumPath(forumID)
	}
	return fmt.Sprintf("%s#r-%s", forumPath(forumID), url.PathEscape(replyID.String()))
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, name, message string) {
	middleware.SetFlash(w, name, message, h.Public.Server.SecureCookies)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sessionCookies are forwarded to the gateway with mutations.
func (h *Handler) sessionCookies(r *http.Request) []*http.Cookie {
	cookie, err := r.Cookie(h.Public.Server.SessionCookie)
	if err != nil {
		return nil
	}
	return []*http.Cookie{cookie}
}

// The expand state is kept per forum in a cookie scoped to the forum's path.
func (h *Handler) loadExpandState(r *http.Request) *replytree.ExpandState {
	cookie, err := r.Cookie(expandCookie)
	if err != nil {
		return replytree.NewExpandState()
	}
	return replytree.DecodeExpandState(cookie.Value)
}

func (h *Handler) saveExpandState(w http.ResponseWriter, forumID domain.ForumId, state *replytree.ExpandState) {
	cookie := &http.Cookie{
		Name:     expandCookie,
		Value:    state.Encode(),
		Path:     forumPath(forumID),
		HttpOnly: true,
		Secure:   h.Public.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   30 * 24 * 3600,
	}
	if state.Len() == 0 {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

// userMessage is the notice shown for err. Validation errors and errors
// carrying a status keep their text; anything else is generic.
func userMessage(err error) string {
	if internal_errors.IsValidation(err) {
		return err.Error()
	}
	var e *internal_errors.ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.Message
	}
	if errors.Is(err, internal_errors.ErrRepliesUnavailable) {
		return internal_errors.ErrRepliesUnavailable.Error()
	}
	return "Unexpected error, try again later"
}

// broadcast tells the other open pages about a change. Failures only cost
// them the live update, so they are logged.
func (h *Handler) broadcast(ctx context.Context, ev domain.ReplyEvent) {
	if h.Realtime == nil {
		return
	}
	if err := h.Realtime.Broadcast(context.WithoutCancel(ctx), ev); err != nil {
		logger.Log.Warn("could not broadcast reply event", "tipo", ev.Type, "error", err)
	}
}
