package handler

import (
	"net/http"

	"github.com/itchan-dev/foro/frontend/internal/replytree"
	"github.com/itchan-dev/foro/shared/api"
	"github.com/itchan-dev/foro/shared/logger"
	"github.com/itchan-dev/foro/shared/utils"
)

// TreeAPIHandler serves the forum's reply forest as JSON.
func (h *Handler) TreeAPIHandler(w http.ResponseWriter, r *http.Request) {
	forumID := forumIDParam(r)
	forest, err := h.Replies.Load(r.Context(), forumID)
	if err != nil {
		logger.Log.Error("loading replies for api", "forum", forumID, "error", err)
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.ReplyTreeResponse{
		ForumId: forumID,
		Total:   replytree.Count(forest),
		Replies: forest,
	})
}
