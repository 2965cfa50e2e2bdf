package handler

import (
	"net/http"
	"strings"

	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/api"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/itchan-dev/foro/shared/logger"
	mw "github.com/itchan-dev/foro/shared/middleware"
	"github.com/itchan-dev/foro/shared/validation"
)

// ReplyPostHandler creates a reply, or a reply to a reply when the form
// carries "padre".
func (h *Handler) ReplyPostHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)
	target := forumPath(forumID)
	account := mw.GetAccountFromContext(r)

	if err := h.Validator.Author(account); err != nil {
		h.redirectWithFlash(w, r, target, middleware.FlashError, err.Error())
		return
	}
	message, err := h.Validator.Message(r.PostFormValue("mensaje"))
	if err != nil {
		h.redirectWithFlash(w, r, target, middleware.FlashError, err.Error())
		return
	}
	parentID := domain.ReplyId(strings.TrimSpace(r.PostFormValue("padre")))

	var (
		record domain.ReplyRecord
		tipo   string
	)
	if parentID.IsZero() {
		req := api.CreateReplyRequest{Message: message, AccountId: account.Id}
		if err := validation.Request(req); err != nil {
			h.redirectWithFlash(w, r, target, middleware.FlashError, internal_errors.ErrReplyNotSent.Error())
			return
		}
		tipo = domain.EventNewReply
		record, err = h.API.CreateReply(r.Context(), forumID, req, h.sessionCookies(r)...)
	} else {
		target = replyAnchor(forumID, parentID)
		if err := h.checkReplyDepth(r, forumID, parentID); err != nil {
			h.redirectWithFlash(w, r, target, middleware.FlashError, userMessage(err))
			return
		}
		req := api.CreateNestedReplyRequest{Message: message, AccountId: account.Id, ParentReplyId: parentID}
		if err := validation.Request(req); err != nil {
			h.redirectWithFlash(w, r, target, middleware.FlashError, internal_errors.ErrReplyNotSent.Error())
			return
		}
		tipo = domain.EventNewNested
		record, err = h.API.CreateNestedReply(r.Context(), forumID, req, h.sessionCookies(r)...)
	}
	if err != nil {
		logger.Log.Error("creating reply", "forum", forumID, "parent", parentID, "error", err)
		h.redirectWithFlash(w, r, target, middleware.FlashError, internal_errors.ErrReplyNotSent.Error())
		return
	}

	if !parentID.IsZero() {
		// show the new reply right away
		state := h.loadExpandState(r)
		if !state.IsExpanded(parentID) {
			state.Toggle(parentID)
			h.saveExpandState(w, forumID, state)
		}
	}
	h.broadcast(r.Context(), domain.ReplyEvent{Type: tipo, Reply: &record})
	h.redirectWithFlash(w, r, replyAnchor(forumID, record.Id), middleware.FlashSuccess, "Respuesta publicada")
}

// checkReplyDepth refuses replies to nodes at MaxReplyDepth or deeper.
func (h *Handler) checkReplyDepth(r *http.Request, forumID domain.ForumId, parentID domain.ReplyId) error {
	forest, err := h.Replies.Load(r.Context(), forumID)
	if err != nil {
		return err
	}
	_, depth, ok := replytree.Find(forest, parentID)
	if !ok {
		return &internal_errors.ErrorWithStatusCode{Message: "the reply you answered no longer exists", StatusCode: http.StatusNotFound}
	}
	if !replytree.CanReply(depth) {
		return internal_errors.ErrReplyDepthExceeded
	}
	return nil
}

func (h *Handler) ReplyEditHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)
	replyID := replyIDParam(r)
	target := replyAnchor(forumID, replyID)
	account := mw.GetAccountFromContext(r)

	if err := h.Validator.Author(account); err != nil {
		h.redirectWithFlash(w, r, target, middleware.FlashError, err.Error())
		return
	}
	message, err := h.Validator.Message(r.PostFormValue("mensaje"))
	if err != nil {
		h.redirectWithFlash(w, r, target, middleware.FlashError, err.Error())
		return
	}

	req := api.UpdateReplyRequest{Message: message, AccountId: account.Id}
	if err := h.API.UpdateReply(r.Context(), replyID, req, h.sessionCookies(r)...); err != nil {
		logger.Log.Error("updating reply", "forum", forumID, "reply", replyID, "error", err)
		h.redirectWithFlash(w, r, target, middleware.FlashError, userMessage(err))
		return
	}

	h.broadcast(r.Context(), domain.ReplyEvent{
		Type:  domain.EventReplyEdited,
		Reply: &domain.ReplyRecord{Id: replyID, ForumId: forumID, AccountId: account.Id, Message: message},
	})
	h.redirectWithFlash(w, r, target, middleware.FlashSuccess, "Respuesta actualizada")
}

// ReplyDeleteHandler deletes a reply; the gateway removes its nested
// replies with it.
func (h *Handler) ReplyDeleteHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)
	replyID := replyIDParam(r)
	target := forumPath(forumID)
	account := mw.GetAccountFromContext(r)

	if err := h.Validator.Author(account); err != nil {
		h.redirectWithFlash(w, r, target, middleware.FlashError, err.Error())
		return
	}

	req := api.DeleteReplyRequest{AccountId: account.Id}
	if err := h.API.DeleteReply(r.Context(), replyID, req, h.sessionCookies(r)...); err != nil {
		logger.Log.Error("deleting reply", "forum", forumID, "reply", replyID, "error", err)
		h.redirectWithFlash(w, r, replyAnchor(forumID, replyID), middleware.FlashError, userMessage(err))
		return
	}

	h.broadcast(r.Context(), domain.ReplyEvent{
		Type:  domain.EventReplyDeleted,
		Reply: &domain.ReplyRecord{Id: replyID, ForumId: forumID},
	})
	h.redirectWithFlash(w, r, target, middleware.FlashSuccess, "Respuesta eliminada")
}
