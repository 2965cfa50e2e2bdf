package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
)

// === Forum Methods ===

func (c *APIClient) GetForum(ctx context.Context, forumID domain.ForumId) (domain.ForumRecord, error) {
	var forum domain.ForumRecord
	resp, err := c.do(ctx, http.MethodGet, "/foro/listarForo/"+url.PathEscape(forumID.String()), nil)
	if err != nil {
		return forum, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return forum, &internal_errors.ErrorWithStatusCode{
			Message: internal_errors.ErrForumNotFound.Error(), StatusCode: http.StatusNotFound, Err: internal_errors.ErrForumNotFound,
		}
	}
	if !isSuccess(resp.StatusCode) {
		return forum, responseError(resp, "could not load forum", nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return forum, fmt.Errorf("cannot read forum response: %w", err)
	}
	forums, err := parseForums(bodyBytes)
	if err != nil {
		return forum, fmt.Errorf("cannot decode forum response: %w", err)
	}
	// the gateway answers an unknown id with an empty list
	if len(forums) == 0 || forums[0].Id.IsZero() {
		return forum, &internal_errors.ErrorWithStatusCode{
			Message: internal_errors.ErrForumNotFound.Error(), StatusCode: http.StatusNotFound, Err: internal_errors.ErrForumNotFound,
		}
	}
	return forums[0], nil
}

func (c *APIClient) ListForums(ctx context.Context) ([]domain.ForumRecord, error) {
	resp, err := c.do(ctx, http.MethodGet, "/foro/listarForos", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, responseError(resp, "could not load forums", nil)
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read forums response: %w", err)
	}
	forums, err := parseForums(bodyBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot decode forums response: %w", err)
	}
	return forums, nil
}

// parseForums accepts a single forum object or a list of them.
func parseForums(data []byte) ([]domain.ForumRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []domain.ForumRecord{}, nil
	}
	if data[0] == '{' {
		var forum domain.ForumRecord
		if err := json.Unmarshal(data, &forum); err != nil {
			return nil, err
		}
		return []domain.ForumRecord{forum}, nil
	}
	forums := []domain.ForumRecord{}
	if err := json.Unmarshal(data, &forums); err != nil {
		return nil, err
	}
	return forums, nil
}
