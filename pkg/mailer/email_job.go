package mailer

import (
	"github.com/oksasatya/go-user-admin/pkg/mailer/templates"
)

// EmailJob is a notification ready to be rendered and sent.
type EmailJob struct {
	To       string
	Template string // one of the templates package names
	Data     templates.Data
}

// Render produces the subject, text and html bodies for the job.
func (j EmailJob) Render() (subject, text, html string, err error) {
	return templates.Render(j.Template, j.Data)
}
