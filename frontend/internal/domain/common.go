package frontend_domain

import "github.com/itchan-dev/foro/shared/domain"

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	Error      string
	Success    string
	Account    *domain.Account
	Validation ValidationData
	CSRFToken  string
}

// ValidationData holds the limits templates show next to forms.
type ValidationData struct {
	MessageMaxLen int
	MaxReplyDepth int
}
