package domain

// Event types carried in the "tipo" field of realtime payloads.
const (
	EventNewReply     = "nueva-respuesta"
	EventNewNested    = "nueva-replica"
	EventReplyEdited  = "respuesta-editada"
	EventReplyDeleted = "respuesta-eliminada"
)

type EventKind int

const (
	KindUnknown EventKind = iota
	KindCreated
	KindEdited
	KindDeleted
)

// ReplyEvent is the payload of the "evento-respuesta" broadcast.
type ReplyEvent struct {
	Type  string       `json:"tipo"`
	Reply *ReplyRecord `json:"respuesta,omitempty"`
	Forum *ForumRecord `json:"foro,omitempty"`
}

func (e ReplyEvent) Kind() EventKind {
	switch e.Type {
	case EventNewReply, EventNewNested:
		return KindCreated
	case EventReplyEdited:
		return KindEdited
	case EventReplyDeleted:
		return KindDeleted
	default:
		return KindUnknown
	}
}

// ForumId returns the forum the event refers to, if the payload says so.
func (e ReplyEvent) ForumId() (ForumId, bool) {
	if e.Reply != nil && !e.Reply.ForumId.IsZero() {
		return e.Reply.ForumId, true
	}
	if e.Forum != nil && !e.Forum.Id.IsZero() {
		return e.Forum.Id, true
	}
	return "", false
}
