package handler

import (
	"bytes"
	"fmt"
	"net/http"

	frontend_domain "github.com/itchan-dev/foro/frontend/internal/domain"
	"github.com/itchan-dev/foro/frontend/internal/live"
	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/itchan-dev/foro/shared/logger"
	mw "github.com/itchan-dev/foro/shared/middleware"
)

// TemplateData wraps page-specific data with common template data.
// Templates access page data via .Data and common data via .Common.
type TemplateData struct {
	Data   any
	Common frontend_domain.CommonTemplateData
}

func (h *Handler) initCommonTemplateData(w http.ResponseWriter, r *http.Request) frontend_domain.CommonTemplateData {
	return frontend_domain.CommonTemplateData{
		Error:     middleware.PopFlash(w, r, middleware.FlashError),
		Success:   middleware.PopFlash(w, r, middleware.FlashSuccess),
		Account:   mw.GetAccountFromContext(r),
		CSRFToken: middleware.GetCSRFTokenFromContext(r),
		Validation: h.validationData(),
	}
}

func (h *Handler) validationData() frontend_domain.ValidationData {
	return frontend_domain.ValidationData{
		MessageMaxLen: h.Public.Replies.MessageMaxLen,
		MaxReplyDepth: replytree.MaxReplyDepth,
	}
}

func (h *Handler) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	h.renderTemplateWithError(w, r, name, data, "", http.StatusOK)
}

// renderTemplateWithError shows errMsg as the page notice and responds
// with status.
func (h *Handler) renderTemplateWithError(w http.ResponseWriter, r *http.Request, name string, data any, errMsg string, status int) {
	tmpl, ok := h.Templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("Template %s not found", name), http.StatusInternalServerError)
		return
	}

	common := h.initCommonTemplateData(w, r)
	if errMsg != "" {
		common.Error = errMsg
	}
	wrapped := TemplateData{
		Data:   data,
		Common: common,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, wrapped); err != nil {
		logger.Log.Error("error executing template", "template", name, "error", err)
		http.Error(w, "Internal Server Error rendering template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderTreeFragment renders the reply tree block alone, as the stream
// sends it.
func (h *Handler) renderTreeFragment(tree *frontend_domain.ReplyTree, common frontend_domain.CommonTemplateData) (string, error) {
	tmpl, ok := h.Templates["forum.html"]
	if !ok {
		return "", fmt.Errorf("template forum.html not found")
	}
	buf := new(bytes.Buffer)
	data := map[string]any{"Tree": tree, "Common": common, "EditingId": domain.ReplyId("")}
	if err := tmpl.ExecuteTemplate(buf, "tree", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// buildReplyTree turns a forest into the view for one viewer. Children of
// collapsed nodes are not built.
func (h *Handler) buildReplyTree(forumID domain.ForumId, forest []*domain.ReplyNode, state *replytree.ExpandState, account *domain.Account) *frontend_domain.ReplyTree {
	tree := &frontend_domain.ReplyTree{
		ForumId:     forumID,
		Count:       replytree.Count(forest),
		Expandable:  len(replytree.Expandable(forest)),
		AllExpanded: state.AllExpanded(forest),
	}
	tree.Replies = h.buildReplyViews(forest, 0, state, account)
	return tree
}

func (h *Handler) buildReplyViews(nodes []*domain.ReplyNode, depth int, state *replytree.ExpandState, account *domain.Account) []*frontend_domain.ReplyView {
	views := make([]*frontend_domain.ReplyView, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		view := &frontend_domain.ReplyView{
			ReplyRecord: n.Value,
			HTML:        h.TextProcessor.Render(n.Value.Message),
			Depth:       depth,
			CanReply:    replytree.CanReply(depth),
			Own:         account != nil && !n.Value.AccountId.IsZero() && account.Id == n.Value.AccountId,
			Expanded:    state.IsExpanded(n.Value.Id),
			ChildCount:  len(n.Children),
		}
		if replytree.ShouldRenderChildren(n, state) {
			view.Children = h.buildReplyViews(n.Children, depth+1, state, account)
		}
		views = append(views, view)
	}
	return views
}

func (h *Handler) treeFromSnapshot(snap live.Snapshot, state *replytree.ExpandState, account *domain.Account) *frontend_domain.ReplyTree {
	tree := h.buildReplyTree(snap.ForumId, snap.Forest, state, account)
	tree.Version = snap.Version
	if snap.Err != nil {
		tree.Error = userMessage(snap.Err)
	}
	return tree
}
