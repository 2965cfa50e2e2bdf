package frontend_domain

import "github.com/itchan-dev/foro/shared/domain"

type ForumListPageData struct {
	Forums []domain.ForumRecord
}

type ForumPageData struct {
	Forum domain.ForumRecord
	Tree  *ReplyTree
	// LoadError is the notice shown in place of the tree when neither
	// reply endpoint answered.
	LoadError string
	// EditingId is the reply whose edit form is open.
	EditingId domain.ReplyId
}
