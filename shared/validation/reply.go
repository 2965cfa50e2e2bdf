package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/foro/shared/domain"
	internal_errors "github.com/itchan-dev/foro/shared/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReplyValidator checks a reply before anything is sent to the gateway.
type ReplyValidator struct {
	MaxLen int
}

// Message trims text and reports empty or oversized messages.
func (v ReplyValidator) Message(text string) (string, error) {
	text = strings.TrimSpace(text)
	if err := validate.Var(text, "required"); err != nil {
		return "", internal_errors.ErrEmptyMessage
	}
	if v.MaxLen > 0 && utf8.RuneCountInString(text) > v.MaxLen {
		return "", fmt.Errorf("%w (%d characters max)", internal_errors.ErrMessageTooLong, v.MaxLen)
	}
	return text, nil
}

// Author requires a signed-in account.
func (v ReplyValidator) Author(account *domain.Account) error {
	if account == nil || account.Id.IsZero() {
		return internal_errors.ErrNotAuthenticated
	}
	return nil
}

// Request runs the struct tags of a gateway request DTO.
func Request(body any) error {
	if err := validate.Struct(body); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
