package replytree

import (
	"testing"

	"github.com/itchan-dev/foro/shared/domain"
	"github.com/stretchr/testify/assert"
)

func sampleForest() []*domain.ReplyNode {
	// R1 -> R2 -> R3, R1 -> R4, R5 (leaf), R6 -> R7
	return []*domain.ReplyNode{
		nested("R1", nested("R2", node("R3")), node("R4")),
		node("R5"),
		nested("R6", node("R7")),
	}
}

func TestToggle(t *testing.T) {
	s := NewExpandState()
	s.Toggle("R1")
	assert.True(t, s.IsExpanded("R1"))
	s.Toggle("R1")
	assert.False(t, s.IsExpanded("R1"))
	s.Toggle("")
	assert.Equal(t, 0, s.Len())
}

func TestExpandAll(t *testing.T) {
	forest := sampleForest()

	s := NewExpandState()
	s.ExpandAll(forest)
	assert.Equal(t, []domain.ReplyId{"R1", "R2", "R6"}, s.IDs(), "only nodes with children, at any depth")

	once := s.IDs()
	s.ExpandAll(forest)
	assert.Equal(t, once, s.IDs(), "idempotent")
	assert.True(t, s.AllExpanded(forest))
}

func TestCollapseAll(t *testing.T) {
	for _, s := range []*ExpandState{NewExpandState(), NewExpandState("R1", "x", "y")} {
		s.CollapseAll()
		assert.Equal(t, 0, s.Len())
	}
}

func TestToggleAll(t *testing.T) {
	forest := sampleForest()
	s := NewExpandState("R2")

	assert.False(t, s.AllExpanded(forest))
	s.ToggleAll(forest)
	assert.True(t, s.AllExpanded(forest))
	s.ToggleAll(forest)
	assert.Equal(t, 0, s.Len())
}

func TestStaleIdsAreHarmless(t *testing.T) {
	forest := sampleForest()
	s := NewExpandState("deleted-reply")

	assert.False(t, s.AllExpanded(forest), "stale id does not count as expanded")
	s.ExpandAll(forest)
	assert.True(t, s.AllExpanded(forest))
}

func TestAllExpandedAfterReplyDeleted(t *testing.T) {
	s := NewExpandState()
	s.ExpandAll(sampleForest())

	// R6 and its child are gone after a refetch; the set still holds R6
	forest := sampleForest()[:2]
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.AllExpanded(forest))
	s.ToggleAll(forest)
	assert.Equal(t, 0, s.Len(), "the switch collapses instead of expanding again")
}

func TestShouldRenderChildren(t *testing.T) {
	forest := sampleForest()
	s := NewExpandState("R1", "R5")

	assert.True(t, ShouldRenderChildren(forest[0], s))
	assert.False(t, ShouldRenderChildren(forest[1], s), "expanded leaf has nothing to render")
	assert.False(t, ShouldRenderChildren(forest[2], s))
	assert.Len(t, forest[0].Children, 2, "affordance counts immediate children")
	assert.Equal(t, 4, Count(forest[0:1]))
}

func TestEncodeDecode(t *testing.T) {
	s := NewExpandState("R1", "a|b", "ñ 1")
	decoded := DecodeExpandState(s.Encode())
	assert.Equal(t, s.IDs(), decoded.IDs())

	assert.Equal(t, 0, DecodeExpandState("").Len())
	assert.Equal(t, []domain.ReplyId{"ok"}, DecodeExpandState("%zz|ok||").IDs())
}

func TestExpandableEmpty(t *testing.T) {
	assert.Empty(t, Expandable(nil))
	assert.True(t, NewExpandState().AllExpanded(nil))
}
