package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReplyRecord is a reply as returned by the flat list endpoint.
type ReplyRecord struct {
	Id                ReplyId   `json:"idrespuesta"`
	ForumId           ForumId   `json:"idforo"`
	AccountId         AccountId `json:"idcuenta"`
	Message           string    `json:"mensaje"`
	CreatedAt         Timestamp `json:"fecha_creacion"`
	AuthorDisplayName string    `json:"nombre_autor,omitempty"`
	ParentReplyId     ReplyId   `json:"idrespuesta_padre"`
}

func (r ReplyRecord) IsTopLevel() bool {
	return r.ParentReplyId.IsZero()
}

// Normalize fills the fields the gateway may omit.
func (r *ReplyRecord) Normalize(now time.Time) {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = Timestamp{now}
	}
	if r.AuthorDisplayName == "" {
		r.AuthorDisplayName = DisplayNameFor(r.AccountId)
	}
}

func DisplayNameFor(account AccountId) string {
	if account.IsZero() {
		return "Anónimo"
	}
	return "Usuario " + account.String()
}

// ReplyNode is one reply in tree form. Children keep server order.
type ReplyNode struct {
	Value    ReplyRecord  `json:"value"`
	Children []*ReplyNode `json:"children"`
}

func (n *ReplyNode) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// ParseReplyRecords decodes a flat list and rejects records without an id.
func ParseReplyRecords(data []byte) ([]ReplyRecord, error) {
	var records []ReplyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding replies: %w", err)
	}
	now := time.Now()
	for i := range records {
		if records[i].Id.IsZero() {
			return nil, fmt.Errorf("reply at position %d has no id", i)
		}
		records[i].Normalize(now)
	}
	return records, nil
}

// ParseForest decodes the tree endpoint's body. Every node must carry a
// reply with an id; missing children lists become empty.
func ParseForest(data []byte) ([]*ReplyNode, error) {
	var forest []*ReplyNode
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("decoding reply tree: %w", err)
	}
	if forest == nil {
		forest = []*ReplyNode{}
	}
	now := time.Now()
	if err := normalizeForest(forest, now); err != nil {
		return nil, err
	}
	return forest, nil
}

func normalizeForest(nodes []*ReplyNode, now time.Time) error {
	for i, node := range nodes {
		if node == nil || node.Value.Id.IsZero() {
			return fmt.Errorf("reply tree node at position %d has no id", i)
		}
		node.Value.Normalize(now)
		if node.Children == nil {
			node.Children = []*ReplyNode{}
		}
		if err := normalizeForest(node.Children, now); err != nil {
			return err
		}
	}
	return nil
}
