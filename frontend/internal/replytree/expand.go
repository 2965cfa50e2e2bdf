package replytree

import (
	"net/url"
	"sort"
	"strings"

	"github.com/itchan-dev/foro/shared/domain"
)

// ExpandState is the set of node ids whose children are shown. It is kept
// apart from the tree and survives refetches; ids that disappear from the
// tree are simply never looked up again.
type ExpandState struct {
	ids map[domain.ReplyId]struct{}
}

func NewExpandState(ids ...domain.ReplyId) *ExpandState {
	s := &ExpandState{ids: make(map[domain.ReplyId]struct{}, len(ids))}
	for _, id := range ids {
		if !id.IsZero() {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *ExpandState) IsExpanded(id domain.ReplyId) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

func (s *ExpandState) Toggle(id domain.ReplyId) {
	if id.IsZero() {
		return
	}
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// ExpandAll marks every node that has children, at any depth.
func (s *ExpandState) ExpandAll(forest []*domain.ReplyNode) {
	for _, id := range Expandable(forest) {
		s.ids[id] = struct{}{}
	}
}

func (s *ExpandState) CollapseAll() {
	clear(s.ids)
}

// AllExpanded is the "expand all / collapse all" switch: true when every
// node of forest that has children is expanded.
//
// Only ids present in forest are counted. Comparing the raw size of the
// expanded set instead would keep the switch on "expand all" forever once
// an expanded reply is deleted, since its id stays in the set.
func (s *ExpandState) AllExpanded(forest []*domain.ReplyNode) bool {
	expandable := Expandable(forest)
	expanded := 0
	for _, id := range expandable {
		if s.IsExpanded(id) {
			expanded++
		}
	}
	return expanded == len(expandable)
}

// ToggleAll collapses everything when all is expanded, else expands all.
func (s *ExpandState) ToggleAll(forest []*domain.ReplyNode) {
	if s.AllExpanded(forest) {
		s.CollapseAll()
		return
	}
	s.ExpandAll(forest)
}

func (s *ExpandState) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// IDs returns the expanded ids sorted.
func (s *ExpandState) IDs() []domain.ReplyId {
	out := make([]domain.ReplyId, 0, s.Len())
	if s == nil {
		return out
	}
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Encode serialises the state for a cookie value.
func (s *ExpandState) Encode() string {
	ids := s.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = url.QueryEscape(id.String())
	}
	return strings.Join(parts, "|")
}

// DecodeExpandState parses Encode's output. Malformed parts are skipped.
func DecodeExpandState(v string) *ExpandState {
	s := NewExpandState()
	if v == "" {
		return s
	}
	for _, part := range strings.Split(v, "|") {
		id, err := url.QueryUnescape(part)
		if err != nil || id == "" {
			continue
		}
		s.ids[domain.ReplyId(id)] = struct{}{}
	}
	return s
}

// Expandable lists the ids of nodes with at least one child.
func Expandable(forest []*domain.ReplyNode) []domain.ReplyId {
	var ids []domain.ReplyId
	seen := map[domain.ReplyId]bool{}
	Walk(forest, func(n *domain.ReplyNode, _ int) bool {
		if n.HasChildren() && !seen[n.Value.Id] {
			seen[n.Value.Id] = true
			ids = append(ids, n.Value.Id)
		}
		return true
	})
	return ids
}

// ShouldRenderChildren is true when the node has children and is expanded.
// Otherwise the page shows "Show N replies" with N = len(node.Children).
func ShouldRenderChildren(n *domain.ReplyNode, s *ExpandState) bool {
	return n.HasChildren() && s.IsExpanded(n.Value.Id)
}
