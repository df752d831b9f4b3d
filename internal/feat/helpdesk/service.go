package helpdesk

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/allears/helpdesk/internal/db/sqlc"
	"github.com/allears/helpdesk/pkg/hd/config"
	"github.com/allears/helpdesk/pkg/hd/database"
	"github.com/allears/helpdesk/pkg/hd/logger"
	"github.com/allears/helpdesk/pkg/hd/model"
)

var ErrNotFound = errors.New("submission not found")

// Service defines the helpdesk submission service.
type Service interface {
	Start(ctx context.Context) error
	Submit(ctx context.Context, in SubmissionInput, files []Attachment, meta RequestMeta) (*Submission, error)
	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)
	Table() *Table
	Ping(ctx context.Context) error
}

// RequestMeta is what the service records about the client.
type RequestMeta struct {
	Address   string
	UserAgent string
}

// DBProvider provides access to the database.
type DBProvider interface {
	GetDB() *sql.DB
}

// Archiver stores a copy of attachment content outside the database.
type Archiver interface {
	Key(submissionID, field, filename string) string
	Put(ctx context.Context, key string, content []byte, contentType string) (string, error)
}

type service struct {
	dbProvider DBProvider
	queries    *sqlc.Queries
	table      *Table
	notifier   Notifier
	archiver   Archiver
	cfg        *config.Config
	log        logger.Logger
}

// Option customises the service.
type Option func(*service)

// WithArchiver enables attachment archiving.
func WithArchiver(a Archiver) Option {
	return func(s *service) {
		s.archiver = a
	}
}

// NewService creates a new helpdesk service.
func NewService(dbProvider DBProvider, table *Table, notifier Notifier, cfg *config.Config, log logger.Logger, opts ...Option) Service {
	s := &service{
		dbProvider: dbProvider,
		table:      table,
		notifier:   notifier,
		cfg:        cfg,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ensureQueries() {
	if s.queries == nil && s.dbProvider != nil {
		s.queries = sqlc.New(s.dbProvider.GetDB())
	}
}

func (s *service) Start(ctx context.Context) error {
	s.ensureQueries()
	s.log.Info("Helpdesk service started")
	return nil
}

func (s *service) Table() *Table {
	return s.table
}

func (s *service) Ping(ctx context.Context) error {
	if s.dbProvider == nil || s.dbProvider.GetDB() == nil {
		return fmt.Errorf("database not available")
	}
	return s.dbProvider.GetDB().PingContext(ctx)
}

// Submit persists one validated submission and then sends the notification. A failed
// notification is logged and never undoes the insert.
func (s *service) Submit(ctx context.Context, in SubmissionInput, files []Attachment, meta RequestMeta) (*Submission, error) {
	s.ensureQueries()

	role, _ := ParseRole(in.UserRole)
	issue, _ := ParseIssue(in.IssueType)

	sub := &Submission{
		ID:              model.NewID(),
		Role:            role,
		OtherRole:       in.OtherRole,
		Issue:           issue,
		Description:     in.Description,
		FullName:        in.FullName,
		Email:           in.Email,
		ContactEmail:    in.ContactEmail,
		FormName:        in.FormName,
		FormURL:         in.FormURL,
		School:          in.School,
		StudentRelated:  in.StudentRelated,
		StudentFullName: in.StudentFullName,
		StudentNRIC:     in.StudentNRIC,
		StudentMIMS:     in.StudentMIMS,
		ClickedFAQ:      in.ClickedFAQ,
		AddressHash:     s.hashAddress(meta.Address),
		UserAgent:       meta.UserAgent,
		CreatedAt:       model.Now(),
	}

	if action := s.table.Lookup(role, issue); !action.IsNone() {
		sub.Guidance = &GuidanceSnapshot{Action: action, Acknowledged: in.Acknowledged}
	}

	sub.Attachments = make([]AttachmentMeta, 0, len(files))
	for _, f := range files {
		am := f.AttachmentMeta
		am.ArchiveKey = s.archive(ctx, sub.ID, f)
		sub.Attachments = append(sub.Attachments, am)
	}

	params, err := createParamsFromSubmission(sub)
	if err != nil {
		return nil, err
	}

	err = database.WithTx(ctx, s.dbProvider.GetDB(), func(tx *sql.Tx) error {
		_, err := s.queries.WithTx(tx).CreateSubmission(ctx, params)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create submission: %w", err)
	}

	s.log.Infof("Submission %s stored (role=%s issue=%s attachments=%d)", sub.ID, sub.Role, sub.Issue, len(sub.Attachments))

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, sub, files); err != nil {
			s.log.Errorf("Cannot send notification for submission %s: %v", sub.ID, err)
		}
	}

	return sub, nil
}

func (s *service) archive(ctx context.Context, id uuid.UUID, f Attachment) string {
	if s.archiver == nil {
		return ""
	}
	key := s.archiver.Key(id.String(), f.Field, f.Filename)
	if _, err := s.archiver.Put(ctx, key, f.Content, f.ContentType); err != nil {
		s.log.Errorf("Cannot archive %s for submission %s: %v", f.Filename, id, err)
		return ""
	}
	return key
}

func (s *service) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	s.ensureQueries()

	row, err := s.queries.GetSubmission(ctx, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cannot get submission: %w", err)
	}
	return submissionFromSQLC(row)
}

// hashAddress keeps client addresses out of the database while still letting abuse
// from one address be correlated.
func (s *service) hashAddress(addr string) string {
	if addr == "" {
		return ""
	}
	key := []byte(s.cfg.Privacy.AddressSalt)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return ""
	}
	h.Write([]byte(addr))
	return hex.EncodeToString(h.Sum(nil))
}
