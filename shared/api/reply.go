package api

import "github.com/itchan-dev/foro/shared/domain"

// Request bodies sent to the forum gateway. Field names are the gateway's.

type CreateReplyRequest struct {
	Message   string           `json:"mensaje" validate:"required"`
	AccountId domain.AccountId `json:"idcuenta" validate:"required"`
}

type CreateNestedReplyRequest struct {
	Message       string           `json:"mensaje" validate:"required"`
	AccountId     domain.AccountId `json:"idcuenta" validate:"required"`
	ParentReplyId domain.ReplyId   `json:"idrespuesta_padre" validate:"required"`
}

type UpdateReplyRequest struct {
	Message   string           `json:"mensaje" validate:"required"`
	AccountId domain.AccountId `json:"idcuenta" validate:"required"`
}

type DeleteReplyRequest struct {
	AccountId domain.AccountId `json:"idcuenta" validate:"required"`
}

// ReplyTreeResponse is served by the frontend's own JSON endpoint.
type ReplyTreeResponse struct {
	ForumId domain.ForumId      `json:"idforo"`
	Total   int                 `json:"total"`
	Replies []*domain.ReplyNode `json:"respuestas"`
}
