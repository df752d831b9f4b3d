package helpdesk

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/allears/helpdesk/internal/db/sqlc"
	"github.com/allears/helpdesk/internal/testutil"
	"github.com/allears/helpdesk/pkg/hd/config"
	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/allears/helpdesk/pkg/hd/model"
)

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	calls []*Submission
	files [][]Attachment
}

func (f *fakeNotifier) Notify(ctx context.Context, sub *Submission, files []Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub)
	f.files = append(f.files, files)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeArchiver struct {
	err  error
	puts map[string][]byte
}

func (f *fakeArchiver) Key(submissionID, field, filename string) string {
	return "helpdesk/" + submissionID + "/" + field + "-" + filename
}

func (f *fakeArchiver) Put(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.puts == nil {
		f.puts = make(map[string][]byte)
	}
	f.puts[key] = content
	return "https://bucket.test/" + key, nil
}

func setupService(t *testing.T, notifier Notifier, opts ...Option) (Service, *sql.DB) {
	t.Helper()
	db, err := testutil.NewTestDB()
	if err != nil {
		t.Fatalf("cannot create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	cfg.Privacy.AddressSalt = "test-salt"
	svc := NewService(&testutil.TestDBProvider{DB: db}, DefaultTable(), notifier, cfg, logger.NewNoopLogger(), opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return svc, db
}

func normalizedInput(t *testing.T) SubmissionInput {
	t.Helper()
	in := validInput()
	if errs := NewValidator().Validate(&in); errs.HasErrors() {
		t.Fatalf("fixture invalid: %v", errs)
	}
	return in
}

func TestSubmitPersistsAndNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, _ := setupService(t, notifier)
	ctx := context.Background()

	in := normalizedInput(t)
	sub, err := svc.Submit(ctx, in, nil, RequestMeta{Address: "203.0.113.7", UserAgent: "test-agent"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !model.IsValidID(sub.ID) {
		t.Fatal("Submit() should assign an id")
	}
	if notifier.count() != 1 || notifier.calls[0].ID != sub.ID {
		t.Fatalf("notifier calls = %d, want 1 for %s", notifier.count(), sub.ID)
	}

	got, err := svc.GetSubmission(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if got.Description != in.Description {
		t.Errorf("Description = %q, want %q", got.Description, in.Description)
	}
	if got.Role != RoleSchoolStaff || got.Issue != IssueLogin {
		t.Errorf("role/issue = %s/%s", got.Role, got.Issue)
	}
	if got.Guidance == nil || got.Guidance.Action.Kind != ActionLink || !got.Guidance.Acknowledged {
		t.Errorf("Guidance = %+v, want acknowledged link snapshot", got.Guidance)
	}
	if got.AddressHash == "" || strings.Contains(got.AddressHash, "203.0.113.7") {
		t.Errorf("AddressHash = %q, want a hash of the address", got.AddressHash)
	}
	if got.UserAgent != "test-agent" {
		t.Errorf("UserAgent = %q", got.UserAgent)
	}
	if got.Attachments == nil || len(got.Attachments) != 0 {
		t.Errorf("Attachments = %v, want empty list", got.Attachments)
	}
	if !got.CreatedAt.Equal(sub.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, sub.CreatedAt)
	}
}

func TestSubmitSkipIssueHasNoGuidanceSnapshot(t *testing.T) {
	svc, _ := setupService(t, &fakeNotifier{})
	in := normalizedInput(t)
	in.IssueType = string(IssueFeatureRequest)

	sub, err := svc.Submit(context.Background(), in, nil, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	got, err := svc.GetSubmission(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if got.Guidance != nil {
		t.Errorf("Guidance = %+v, want nil", got.Guidance)
	}
}

func TestSubmitNotificationFailureKeepsRecord(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("mail provider down")}
	svc, _ := setupService(t, notifier)

	sub, err := svc.Submit(context.Background(), normalizedInput(t), nil, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v, want nil despite notifier failure", err)
	}
	if _, err := svc.GetSubmission(context.Background(), sub.ID); err != nil {
		t.Errorf("record should be stored, got %v", err)
	}
}

func TestSubmitArchivesAttachments(t *testing.T) {
	archiver := &fakeArchiver{}
	notifier := &fakeNotifier{}
	svc, _ := setupService(t, notifier, WithArchiver(archiver))

	files := []Attachment{{
		AttachmentMeta: AttachmentMeta{Field: "screenshot", Filename: "shot.png", Size: int64(len(pngBytes)), ContentType: "image/png"},
		Content:        pngBytes,
	}}
	sub, err := svc.Submit(context.Background(), normalizedInput(t), files, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	got, err := svc.GetSubmission(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("GetSubmission() error = %v", err)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("Attachments = %v", got.Attachments)
	}
	key := got.Attachments[0].ArchiveKey
	if key == "" || archiver.puts[key] == nil {
		t.Errorf("ArchiveKey = %q, puts = %v", key, archiver.puts)
	}
	if len(notifier.files[0]) != 1 {
		t.Errorf("notifier should receive the attachment content")
	}
}

func TestSubmitArchiveFailureIsNotFatal(t *testing.T) {
	svc, _ := setupService(t, &fakeNotifier{}, WithArchiver(&fakeArchiver{err: errors.New("denied")}))

	files := []Attachment{{
		AttachmentMeta: AttachmentMeta{Field: "file", Filename: "a.jpg", Size: int64(len(jpegBytes)), ContentType: "image/jpeg"},
		Content:        jpegBytes,
	}}
	sub, err := svc.Submit(context.Background(), normalizedInput(t), files, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if sub.Attachments[0].ArchiveKey != "" {
		t.Errorf("ArchiveKey = %q, want empty after failure", sub.Attachments[0].ArchiveKey)
	}
}

func TestSubmitDatabaseFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	svc, db := setupService(t, notifier)
	db.Close()

	if _, err := svc.Submit(context.Background(), normalizedInput(t), nil, RequestMeta{}); err == nil {
		t.Fatal("Submit() expected error with closed database")
	}
	if notifier.count() != 0 {
		t.Error("notifier must not run when the insert fails")
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	svc, _ := setupService(t, &fakeNotifier{})
	_, err := svc.GetSubmission(context.Background(), model.NewID())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSubmission() error = %v, want ErrNotFound", err)
	}
}

func TestSubmissionsAreImmutable(t *testing.T) {
	svc, db := setupService(t, &fakeNotifier{})
	sub, err := svc.Submit(context.Background(), normalizedInput(t), nil, RequestMeta{})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := db.Exec(`UPDATE submissions SET description = 'changed' WHERE id = ?`, sub.ID.String()); err == nil {
		t.Error("UPDATE should be rejected")
	}

	n, err := sqlc.New(db).CountSubmissionsSince(context.Background(), sub.CreatedAt.Add(-time.Minute))
	if err != nil || n != 1 {
		t.Errorf("CountSubmissionsSince() = %d, %v; want 1", n, err)
	}
}

func TestHashAddressIsStableAndSalted(t *testing.T) {
	a := &service{cfg: &config.Config{Privacy: config.PrivacyConfig{AddressSalt: "one"}}}
	b := &service{cfg: &config.Config{Privacy: config.PrivacyConfig{AddressSalt: "two"}}}
	long := &service{cfg: &config.Config{Privacy: config.PrivacyConfig{AddressSalt: strings.Repeat("k", 100)}}}

	if a.hashAddress("10.0.0.1") != a.hashAddress("10.0.0.1") {
		t.Error("hash should be stable")
	}
	if a.hashAddress("10.0.0.1") == b.hashAddress("10.0.0.1") {
		t.Error("hash should depend on the salt")
	}
	if long.hashAddress("10.0.0.1") == "" {
		t.Error("long salts should still hash")
	}
	if a.hashAddress("") != "" {
		t.Error("empty address should hash to empty")
	}
}
