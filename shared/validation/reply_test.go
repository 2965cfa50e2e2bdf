package validation

import (
	"strings"
	"testing"

	"github.com/itchan-dev/foro/shared/api"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	v := ReplyValidator{MaxLen: 5}

	text, err := v.Message("  hola \n")
	require.NoError(t, err)
	assert.Equal(t, "hola", text)

	_, err = v.Message(" \t ")
	assert.ErrorIs(t, err, internal_errors.ErrEmptyMessage)

	_, err = v.Message("seis!!")
	assert.ErrorIs(t, err, internal_errors.ErrMessageTooLong)

	// runes, not bytes
	_, err = v.Message("ñññññ")
	assert.NoError(t, err)

	_, err = ReplyValidator{}.Message(strings.Repeat("x", 10000))
	assert.NoError(t, err, "zero MaxLen disables the limit")
}

func TestAuthor(t *testing.T) {
	v := ReplyValidator{}
	assert.ErrorIs(t, v.Author(nil), internal_errors.ErrNotAuthenticated)
	assert.ErrorIs(t, v.Author(&domain.Account{}), internal_errors.ErrNotAuthenticated)
	assert.NoError(t, v.Author(&domain.Account{Id: "1"}))
}

func TestRequest(t *testing.T) {
	assert.NoError(t, Request(api.CreateNestedReplyRequest{Message: "a", AccountId: "1", ParentReplyId: "R1"}))
	assert.Error(t, Request(api.CreateNestedReplyRequest{Message: "a", AccountId: "1"}))
	assert.Error(t, Request(api.DeleteReplyRequest{}))
}
