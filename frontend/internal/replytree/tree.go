// Package replytree holds the forum reply tree: conversion from the flat
// reply list, counting, traversal, the reply depth rule and the
// expand/collapse state used when rendering.
package replytree

import (
	"github.com/itchan-dev/foro/shared/domain"
)

// MaxReplyDepth is the first depth at which the reply action is no longer
// offered. Roots are depth 0.
const MaxReplyDepth = 2

// CanReply reports whether a node at depth may be answered. Deeper data is
// still rendered, read-only.
func CanReply(depth int) bool {
	return depth >= 0 && depth < MaxReplyDepth
}

// FromFlat wraps every record as a childless top-level node, in input order.
// Parent links are not used: this is what the flat fallback has always
// produced, so nested replies show at top level while the tree endpoint is
// unavailable.
func FromFlat(records []domain.ReplyRecord) []*domain.ReplyNode {
	forest := make([]*domain.ReplyNode, 0, len(records))
	for _, r := range records {
		forest = append(forest, &domain.ReplyNode{Value: r, Children: []*domain.ReplyNode{}})
	}
	return forest
}

// Nest rebuilds nesting from idrespuesta_padre. Input order is kept among
// siblings. Records whose parent is not in the list (or that would close a
// cycle) become roots, so every record appears exactly once.
func Nest(records []domain.ReplyRecord) []*domain.ReplyNode {
	nodes := make(map[domain.ReplyId]*domain.ReplyNode, len(records))
	order := make([]*domain.ReplyNode, 0, len(records))
	for _, r := range records {
		if _, dup := nodes[r.Id]; dup {
			continue
		}
		n := &domain.ReplyNode{Value: r, Children: []*domain.ReplyNode{}}
		nodes[r.Id] = n
		order = append(order, n)
	}

	forest := make([]*domain.ReplyNode, 0)
	for _, n := range order {
		parent, ok := nodes[n.Value.ParentReplyId]
		if n.Value.IsTopLevel() || !ok || parent == n || isAncestor(n, parent, nodes) {
			forest = append(forest, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return forest
}

// isAncestor reports whether n is already above candidate in the parent
// chain, i.e. attaching n under candidate would create a cycle.
func isAncestor(n, candidate *domain.ReplyNode, nodes map[domain.ReplyId]*domain.ReplyNode) bool {
	seen := map[domain.ReplyId]bool{}
	for cur := candidate; cur != nil && !cur.Value.IsTopLevel(); {
		if seen[cur.Value.Id] {
			return true
		}
		seen[cur.Value.Id] = true
		parent, ok := nodes[cur.Value.ParentReplyId]
		if !ok {
			return false
		}
		if parent == n {
			return true
		}
		cur = parent
	}
	return false
}

// Count returns the number of nodes at all levels.
func Count(forest []*domain.ReplyNode) int {
	total := 0
	for _, n := range forest {
		if n == nil {
			continue
		}
		total += 1 + Count(n.Children)
	}
	return total
}

// Walk visits nodes depth-first in pre-order. Returning false from fn skips
// the node's children.
func Walk(forest []*domain.ReplyNode, fn func(node *domain.ReplyNode, depth int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []*domain.ReplyNode, depth int, fn func(*domain.ReplyNode, int) bool) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Find returns the node with id and its depth.
func Find(forest []*domain.ReplyNode, id domain.ReplyId) (*domain.ReplyNode, int, bool) {
	var found *domain.ReplyNode
	foundDepth := -1
	Walk(forest, func(n *domain.ReplyNode, depth int) bool {
		if found != nil {
			return false
		}
		if n.Value.Id == id {
			found, foundDepth = n, depth
			return false
		}
		return true
	})
	return found, foundDepth, found != nil
}

// Contains reports whether id is anywhere in the forest.
func Contains(forest []*domain.ReplyNode, id domain.ReplyId) bool {
	_, _, ok := Find(forest, id)
	return ok
}
