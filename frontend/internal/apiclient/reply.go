package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/itchan-dev/foro/shared/api"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/itchan-dev/foro/shared/logger"
)

// === Reply Methods ===

func (c *APIClient) ListReplies(ctx context.Context, forumID domain.ForumId) ([]domain.ReplyRecord, error) {
	bodyBytes, err := c.getBody(ctx, "/foro/respuestas/traerRespuestas/"+url.PathEscape(forumID.String()))
	if err != nil {
		return nil, err
	}
	records, err := domain.ParseReplyRecords(bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot decode replies response: %w", err)
	}
	return records, nil
}

func (c *APIClient) GetReplyTree(ctx context.Context, forumID domain.ForumId) ([]*domain.ReplyNode, error) {
	bodyBytes, err := c.getBody(ctx, "/foro/respuestas/arbol/"+url.PathEscape(forumID.String()))
	if err != nil {
		return nil, err
	}
	forest, err := domain.ParseForest(bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot decode reply tree response: %w", err)
	}
	return forest, nil
}

func (c *APIClient) getBody(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, responseError(resp, internal_errors.ErrRepliesUnavailable.Error(), internal_errors.ErrRepliesUnavailable)
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read response: %w", err)
	}
	return bodyBytes, nil
}

// CreateReply posts a top-level reply. The returned record is the gateway's
// echo when it sends one, else built from the request.
func (c *APIClient) CreateReply(ctx context.Context, forumID domain.ForumId, data api.CreateReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error) {
	sent := domain.ReplyRecord{ForumId: forumID, AccountId: data.AccountId, Message: data.Message}
	return c.postReply(ctx, "/foro/responder/"+url.PathEscape(forumID.String()), data, sent, cookies)
}

// CreateNestedReply posts a reply to parent. Gateways without the nested
// endpoint answer 404; the reply is then sent as a top-level one.
func (c *APIClient) CreateNestedReply(ctx context.Context, forumID domain.ForumId, data api.CreateNestedReplyRequest, cookies ...*http.Cookie) (domain.ReplyRecord, error) {
	sent := domain.ReplyRecord{ForumId: forumID, AccountId: data.AccountId, Message: data.Message, ParentReplyId: data.ParentReplyId}
	record, err := c.postReply(ctx, "/foro/replicar/"+url.PathEscape(forumID.String()), data, sent, cookies)
	if internal_errors.StatusCode(err) == http.StatusNotFound {
		logger.Log.Info("nested reply endpoint not found, sending as top-level reply", "forum", forumID, "parent", data.ParentReplyId)
		return c.CreateReply(ctx, forumID, api.CreateReplyRequest{Message: data.Message, AccountId: data.AccountId}, cookies...)
	}
	return record, err
}

func (c *APIClient) postReply(ctx context.Context, path string, data any, sent domain.ReplyRecord, cookies []*http.Cookie) (domain.ReplyRecord, error) {
	resp, err := c.do(ctx, http.MethodPost, path, data, cookies...)
	if err != nil {
		return sent, notSent(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return sent, responseError(resp, internal_errors.ErrReplyNotSent.Error(), internal_errors.ErrReplyNotSent)
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return echoedReply(bodyBytes, sent), nil
}

// echoedReply reads the created reply from a response body that may be a
// record, a one-element list, or anything else.
func echoedReply(body []byte, sent domain.ReplyRecord) domain.ReplyRecord {
	var one domain.ReplyRecord
	if err := json.Unmarshal(body, &one); err != nil || one.Id.IsZero() {
		var many []domain.ReplyRecord
		if err := json.Unmarshal(body, &many); err != nil || len(many) == 0 || many[0].Id.IsZero() {
			sent.Normalize(time.Now())
			return sent
		}
		one = many[0]
	}
	if one.ForumId.IsZero() {
		one.ForumId = sent.ForumId
	}
	if one.ParentReplyId.IsZero() {
		one.ParentReplyId = sent.ParentReplyId
	}
	one.Normalize(time.Now())
	return one
}

func (c *APIClient) UpdateReply(ctx context.Context, replyID domain.ReplyId, data api.UpdateReplyRequest, cookies ...*http.Cookie) error {
	resp, err := c.do(ctx, http.MethodPatch, "/foro/respuesta/actualizar/"+url.PathEscape(replyID.String()), data, cookies...)
	if err != nil {
		return notSent(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return responseError(resp, "could not update reply", internal_errors.ErrReplyNotSent)
	}
	return nil
}

// DeleteReply removes a reply; the gateway deletes its nested replies too.
func (c *APIClient) DeleteReply(ctx context.Context, replyID domain.ReplyId, data api.DeleteReplyRequest, cookies ...*http.Cookie) error {
	resp, err := c.do(ctx, http.MethodDelete, "/foro/respuesta/eliminar/"+url.PathEscape(replyID.String()), data, cookies...)
	if err != nil {
		return notSent(err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return responseError(resp, "could not delete reply", internal_errors.ErrReplyNotSent)
	}
	return nil
}

func notSent(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &internal_errors.ErrorWithStatusCode{
		Message:    internal_errors.ErrReplyNotSent.Error(),
		StatusCode: internal_errors.StatusCode(err),
		Err:        fmt.Errorf("%w: %w", internal_errors.ErrReplyNotSent, err),
	}
}
