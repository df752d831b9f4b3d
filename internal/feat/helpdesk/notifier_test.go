package helpdesk

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/allears/helpdesk/internal/testutil"
	"github.com/allears/helpdesk/pkg/hd/config"
	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/allears/helpdesk/pkg/hd/mail"
)

type fakeMailer struct {
	err  error
	sent []mail.Message
}

func (f *fakeMailer) Send(ctx context.Context, msg mail.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

func sampleSubmission() *Submission {
	return &Submission{
		ID:           uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000001"),
		Role:         RoleParent,
		Issue:        IssueResponses,
		Description:  "<script>alert('x')</script> responses are missing from the export",
		FullName:     "Lee",
		Email:        "lee@moe.edu.sg",
		ContactEmail: "lee@example.com",
		Guidance:     &GuidanceSnapshot{Action: LinkAction("https://allears.estl.edu.sg/faqs", "FAQ"), Acknowledged: true},
		Attachments:  []AttachmentMeta{{Field: "screenshot", Filename: "a.png", Size: 2048, ContentType: "image/png"}},
		CreatedAt:    time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
}

func mailConfig() *config.Config {
	cfg := config.Default()
	cfg.Mail.From = "helpdesk@allears.test"
	cfg.Mail.To = "support@allears.test"
	return cfg
}

func TestMailNotifierSends(t *testing.T) {
	mailer := &fakeMailer{}
	n, err := NewMailNotifier(mailer, os.DirFS(testutil.RootDir()), mailConfig(), logger.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewMailNotifier() error = %v", err)
	}

	sub := sampleSubmission()
	files := []Attachment{{AttachmentMeta: sub.Attachments[0], Content: pngBytes}}
	if err := n.Notify(context.Background(), sub, files); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.Subject != "Helpdesk Ticket: parent | responses" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.ReplyTo != "lee@example.com" {
		t.Errorf("ReplyTo = %q", msg.ReplyTo)
	}
	if len(msg.To) != 1 || msg.To[0] != "support@allears.test" || msg.From != "helpdesk@allears.test" {
		t.Errorf("From/To = %q/%v", msg.From, msg.To)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != "a.png" {
		t.Errorf("Attachments = %+v", msg.Attachments)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("description must be escaped in the email body")
	}
	if !strings.Contains(msg.HTML, "responses are missing") || !strings.Contains(msg.HTML, "acknowledged") {
		t.Errorf("email body missing content: %s", msg.HTML)
	}
}

func TestMailNotifierPropagatesSendError(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("rate limited")}
	n, err := NewMailNotifier(mailer, os.DirFS(testutil.RootDir()), mailConfig(), logger.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewMailNotifier() error = %v", err)
	}
	if err := n.Notify(context.Background(), sampleSubmission(), nil); err == nil {
		t.Error("Notify() expected error")
	}
}

func TestLogNotifier(t *testing.T) {
	n, err := NewLogNotifier(os.DirFS(testutil.RootDir()), config.Default(), logger.NewNoopLogger())
	if err != nil {
		t.Fatalf("NewLogNotifier() error = %v", err)
	}
	if err := n.Notify(context.Background(), sampleSubmission(), nil); err != nil {
		t.Errorf("Notify() error = %v", err)
	}
}
