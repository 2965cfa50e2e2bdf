package handler

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/foro/frontend/internal/markdown"
	"github.com/itchan-dev/foro/frontend/internal/middleware"
	"github.com/itchan-dev/foro/frontend/internal/realtime"
	"github.com/itchan-dev/foro/frontend/templates"
	"github.com/itchan-dev/foro/shared/api"
	"github.com/itchan-dev/foro/shared/config"
	"github.com/itchan-dev/foro/shared/domain"
	mw "github.com/itchan-dev/foro/shared/middleware"
	"github.com/stretchr/testify/require"
)

type MockForumAPI struct {
	MockGetForum          func(ctx context.Context, forumID domain.ForumId) (domain.ForumRecord, error)
	MockListForums        func(ctx context.Context) ([]domain.ForumRecord, error)
	MockCreateReply       func(ctx context.Context, forumID domain.ForumId, data api.CreateReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error)
	MockCreateNestedReply func(ctx context.Context, forumID domain.ForumId, data api.CreateNestedReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error)
	MockUpdateReply       func(ctx context.Context, replyID domain.ReplyId, data api.UpdateReplyRequest, cookies ...*http.Cookie) error
	MockDeleteReply       func(ctx context.Context, replyID domain.ReplyId, data api.DeleteReplyRequest, cookies ...*http.Cookie) error
}

func (m *MockForumAPI) GetForum(ctx context.Context, forumID domain.ForumId) (domain.ForumRecord, error) {
	if m.MockGetForum != nil {
		return m.MockGetForum(ctx, forumID)
	}
	return domain.ForumRecord{Id: forumID, Title: "Foro " + forumID.String()}, nil
}

func (m *MockForumAPI) ListForums(ctx context.Context) ([]domain.ForumRecord, error) {
	if m.MockListForums != nil {
		return m.MockListForums(ctx)
	}
	return nil, nil
}

func (m *MockForumAPI) CreateReply(ctx context.Context, forumID domain.ForumId, data api.CreateReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error) {
	if m.MockCreateReply != nil {
		return m.MockCreateReply(ctx, forumID, data, cookies...)
	}
	return domain.ReplyRecord{}, nil
}

func (m *MockForumAPI) CreateNestedReply(ctx context.Context, forumID domain.ForumId, data api.CreateNestedReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error) {
	if m.MockCreateNestedReply != nil {
		return m.MockCreateNestedReply(ctx, forumID, data, cookies...)
	}
	return domain.ReplyRecord{}, nil
}

func (m *MockForumAPI) UpdateReply(ctx context.Context, replyID domain.ReplyId, data api.UpdateReplyRequest, cookies ...*http.Cookie) error {
	if m.MockUpdateReply != nil {
		return m.MockUpdateReply(ctx, replyID, data, cookies...)
	}
	return nil
}

func (m *MockForumAPI) DeleteReply(ctx context.Context, replyID domain.ReplyId, data api.DeleteReplyRequest, cookies ...*http.Cookie) error {
	if m.MockDeleteReply != nil {
		return m.MockDeleteReply(ctx, replyID, data, cookies...)
	}
	return nil
}

// MockLoader implements live.Loader
type MockLoader struct {
	MockLoad func(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error)
}

func (m *MockLoader) Load(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error) {
	if m.MockLoad != nil {
		return m.MockLoad(ctx, forumID)
	}
	return []*domain.ReplyNode{}, nil
}

func reply(id, parent, account string, children ...*domain.ReplyNode) *domain.ReplyNode {
	if children == nil {
		children = []*domain.ReplyNode{}
	}
	return &domain.ReplyNode{
		Value: domain.ReplyRecord{
			Id:                domain.ReplyId(id),
			ForumId:           "F1",
			AccountId:         domain.AccountId(account),
			ParentReplyId:     domain.ReplyId(parent),
			Message:           "mensaje " + id,
			AuthorDisplayName: "Usuario " + account,
		},
		Children: children,
	}
}

// testForest is R1(R2(R3)), R4
func testForest() []*domain.ReplyNode {
	return []*domain.ReplyNode{
		reply("R1", "", "7", reply("R2", "R1", "8", reply("R3", "R2", "7"))),
		reply("R4", "", "8"),
	}
}

func newTestHandler(t *testing.T, forumAPI ForumAPI, loader *MockLoader) (*Handler, *realtime.Hub) {
	t.Helper()
	tmpls, err := templates.Load(templates.FS)
	require.NoError(t, err)
	if loader == nil {
		loader = &MockLoader{}
	}
	hub := realtime.NewHub(8)
	return New(tmpls, config.Defaults(), markdown.New(), forumAPI, loader, hub, hub), hub
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/foros", h.ForumsGetHandler)
	r.Route("/foros/{forumID}", func(r chi.Router) {
		r.Get("/", h.ForumGetHandler)
		r.Get("/eventos", h.StreamHandler)
		r.Post("/respuestas", h.ReplyPostHandler)
		r.Post("/respuestas/{replyID}/editar", h.ReplyEditHandler)
		r.Post("/respuestas/{replyID}/eliminar", h.ReplyDeleteHandler)
		r.Post("/expandir", h.ToggleAllHandler)
		r.Post("/expandir/{replyID}", h.ToggleExpandHandler)
	})
	r.Get("/api/foros/{forumID}/arbol", h.TreeAPIHandler)
	return r
}

func withAccount(req *http.Request, id string) *http.Request {
	account := &domain.Account{Id: domain.AccountId(id), DisplayName: "Usuario " + id}
	return req.WithContext(context.WithValue(req.Context(), mw.AccountKey, account))
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// responseCookie returns the named cookie set on rr, decoding flashes.
func responseCookie(rr *httptest.ResponseRecorder, name string) (*http.Cookie, bool) {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func flash(t *testing.T, rr *httptest.ResponseRecorder, name string) string {
	t.Helper()
	c, ok := responseCookie(rr, name)
	if !ok {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(c.Value)
	require.NoError(t, err)
	return string(decoded)
}

var (
	flashError   = middleware.FlashError
	flashSuccess = middleware.FlashSuccess
)
