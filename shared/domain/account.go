package domain

// Account is the signed-in user as read from the session token.
type Account struct {
	Id          AccountId
	DisplayName string
	Admin       bool
}

func (a *Account) Name() string {
	if a == nil {
		return ""
	}
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return DisplayNameFor(a.Id)
}
