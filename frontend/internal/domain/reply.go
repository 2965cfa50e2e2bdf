package frontend_domain

import (
	"fmt"
	"html/template"

	"github.com/itchan-dev/foro/shared/domain"
)

// ReplyTree is the rendered state of a forum's replies for one viewer.
type ReplyTree struct {
	ForumId     domain.ForumId
	Count       int
	Replies     []*ReplyView
	Expandable  int
	AllExpanded bool
	Version     uint64
	// Error is set when a refresh failed and Replies are the last good ones.
	Error string
}

// Badge is the reply count label, e.g. "3 respuestas".
func (t *ReplyTree) Badge() string {
	if t.Count == 1 {
		return "1 respuesta"
	}
	return fmt.Sprintf("%d respuestas", t.Count)
}

func (t *ReplyTree) Empty() bool {
	return t.Count == 0
}

// ReplyView is one reply prepared for the page.
type ReplyView struct {
	domain.ReplyRecord
	HTML  template.HTML
	Depth int
	// CanReply exposes the reply form; false from MaxReplyDepth on.
	CanReply   bool
	Own        bool
	Expanded   bool
	ChildCount int
	// Children is filled only when Expanded.
	Children []*ReplyView
}

// ToggleLabel is the expand affordance text, counting immediate children.
func (v *ReplyView) ToggleLabel() string {
	if v.Expanded {
		return "Ocultar respuestas"
	}
	if v.ChildCount == 1 {
		return "Mostrar 1 respuesta"
	}
	return fmt.Sprintf("Mostrar %d respuestas", v.ChildCount)
}
