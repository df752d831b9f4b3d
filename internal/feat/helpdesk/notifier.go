package helpdesk

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/allears/helpdesk/pkg/hd/config"
	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/allears/helpdesk/pkg/hd/mail"
	"github.com/allears/helpdesk/pkg/hd/render"
)

const emailTemplatePath = "assets/templates/email/ticket.html"

// Notifier tells the support team about a stored submission.
type Notifier interface {
	Notify(ctx context.Context, sub *Submission, files []Attachment) error
}

// Mailer sends one email and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) (string, error)
}

type emailData struct {
	Submission   *Submission
	SupportEmail string
}

type emailRenderer struct {
	tmpl         *template.Template
	supportEmail string
}

func newEmailRenderer(templatesFS fs.FS, supportEmail string) (*emailRenderer, error) {
	tmpl, err := template.New("ticket.html").Funcs(render.FuncMap()).ParseFS(templatesFS, emailTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("cannot parse email template: %w", err)
	}
	return &emailRenderer{tmpl: tmpl, supportEmail: supportEmail}, nil
}

// Subject returns the notification subject line for sub.
func Subject(sub *Submission) string {
	return fmt.Sprintf("Helpdesk Ticket: %s | %s", sub.Role, sub.Issue)
}

func (e *emailRenderer) body(sub *Submission) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, emailData{Submission: sub, SupportEmail: e.supportEmail}); err != nil {
		return "", fmt.Errorf("cannot render email: %w", err)
	}
	return buf.String(), nil
}

// MailNotifier emails every submission to the support inbox.
type MailNotifier struct {
	mailer   Mailer
	renderer *emailRenderer
	from     string
	to       []string
	log      logger.Logger
}

// NewMailNotifier creates a notifier that sends through mailer.
func NewMailNotifier(mailer Mailer, templatesFS fs.FS, cfg *config.Config, log logger.Logger) (*MailNotifier, error) {
	r, err := newEmailRenderer(templatesFS, cfg.Mail.SupportEmail)
	if err != nil {
		return nil, err
	}
	return &MailNotifier{
		mailer:   mailer,
		renderer: r,
		from:     cfg.Mail.From,
		to:       []string{cfg.Mail.To},
		log:      log,
	}, nil
}

func (n *MailNotifier) Notify(ctx context.Context, sub *Submission, files []Attachment) error {
	html, err := n.renderer.body(sub)
	if err != nil {
		return err
	}

	msg := mail.Message{
		From:    n.from,
		To:      n.to,
		ReplyTo: sub.ContactEmail,
		Subject: Subject(sub),
		HTML:    html,
	}
	for _, f := range files {
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename: f.Filename,
			Content:  f.Content,
		})
	}

	id, err := n.mailer.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("cannot send notification: %w", err)
	}
	n.log.Infof("Notification %s sent for submission %s", id, sub.ID)
	return nil
}

// LogNotifier writes the notification to the log instead of sending it. It is used
// when no mail provider is configured.
type LogNotifier struct {
	renderer *emailRenderer
	log      logger.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(templatesFS fs.FS, cfg *config.Config, log logger.Logger) (*LogNotifier, error) {
	r, err := newEmailRenderer(templatesFS, cfg.Mail.SupportEmail)
	if err != nil {
		return nil, err
	}
	return &LogNotifier{renderer: r, log: log}, nil
}

func (n *LogNotifier) Notify(ctx context.Context, sub *Submission, files []Attachment) error {
	html, err := n.renderer.body(sub)
	if err != nil {
		return err
	}
	n.log.Infof("Mail disabled, notification for %s: subject=%q attachments=%d body_bytes=%d",
		sub.ID, Subject(sub), len(files), len(html))
	n.log.Debug(html)
	return nil
}
