package handler

import (
	"context"
	"html/template"
	"net/http"

	"github.com/itchan-dev/foro/frontend/internal/live"
	"github.com/itchan-dev/foro/frontend/internal/markdown"
	"github.com/itchan-dev/foro/frontend/internal/realtime"
	"github.com/itchan-dev/foro/shared/api"
	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/domain"
	"github.com/itchan-dev/foro/shared/validation"
)

// ForumAPI is the part of the gateway client the pages use.
type ForumAPI interface {
	GetForum(ctx context.Context, forumID domain.ForumId) (domain.ForumRecord, error)
	ListForums(ctx context.Context) ([]domain.ForumRecord, error)
	CreateReply(ctx context.Context, forumID domain.ForumId, data api.CreateReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error)
	CreateNestedReply(ctx context.Context, forumID domain.ForumId, data api.CreateNestedReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error)
	UpdateReply(ctx context.Context, replyID domain.ReplyId, data api.UpdateReplyRequest, cookies ...*http.Cookie) error
	DeleteReply(ctx context.Context, replyID domain.ReplyId, data api.DeleteReplyRequest, cookies ...*http.Cookie) error
}

type Handler struct {
	Templates     map[string]*template.Template
	Public        config.Public
	TextProcessor *markdown.TextProcessor
	API           ForumAPI
	Replies       live.Loader
	Realtime      realtime.Broadcaster
	Subscriber    realtime.Subscriber
	Validator     validation.ReplyValidator
}

func New(templates map[string]*template.Template, publicCfg config.Public, textProcessor *markdown.TextProcessor,
	forumAPI ForumAPI, replies live.Loader, broadcaster realtime.Broadcaster, subscriber realtime.Subscriber) *Handler {
	return &Handler{
		Templates:     templates,
		Public:        publicCfg,
		TextProcessor: textProcessor,
		API:           forumAPI,
		Replies:       replies,
		Realtime:      broadcaster,
		Subscriber:    subscriber,
		Validator:     validation.ReplyValidator{MaxLen: publicCfg.Replies.MessageMaxLen},
	}
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
