package helpdesk

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// MaxAttachments is the number of files accepted per submission.
	MaxAttachments = 2
	// MaxAttachmentSize is the per-file byte ceiling.
	MaxAttachmentSize = 5 << 20
)

var (
	ErrTooManyFiles = errors.New("too many files")
	ErrFileTooLarge = errors.New("file too large")
	ErrFileType     = errors.New("file type not allowed")
)

// attachmentFields are the multipart parts read as attachments, in order.
var attachmentFields = []string{"screenshot", "video", "file"}

var allowedTypes = []string{
	"image/jpeg",
	"image/png",
	"video/mp4",
	"video/webm",
	"video/quicktime",
}

// Attachment is an uploaded file held in memory for the duration of a request.
type Attachment struct {
	AttachmentMeta
	Content []byte
}

// UploadError reports a rejected file.
type UploadError struct {
	Field    string
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Field, e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Message is the single user-facing explanation for the rejection.
func (e *UploadError) Message() string {
	switch {
	case errors.Is(e.Err, ErrTooManyFiles):
		return fmt.Sprintf("At most %d files can be attached.", MaxAttachments)
	case errors.Is(e.Err, ErrFileTooLarge):
		return "File is too large. Max size is 5MB."
	case errors.Is(e.Err, ErrFileType):
		return "Invalid file type. Only JPG, PNG, MP4, WEBM and MOV are allowed."
	default:
		return "The attached file could not be read."
	}
}

// ReadAttachments reads and checks every attachment part. The declared content type is
// ignored; the type is detected from the file contents.
func ReadAttachments(form *multipart.Form) ([]Attachment, error) {
	if form == nil {
		return nil, nil
	}

	var out []Attachment
	for _, field := range attachmentFields {
		for _, fh := range form.File[field] {
			if fh.Filename == "" && fh.Size == 0 {
				continue
			}
			if len(out) == MaxAttachments {
				return nil, &UploadError{Field: field, Filename: fh.Filename, Err: ErrTooManyFiles}
			}
			att, err := readAttachment(field, fh)
			if err != nil {
				return nil, err
			}
			out = append(out, att)
		}
	}
	return out, nil
}

func readAttachment(field string, fh *multipart.FileHeader) (Attachment, error) {
	name := filepath.Base(strings.ReplaceAll(fh.Filename, "\\", "/"))
	uploadErr := func(err error) error {
		return &UploadError{Field: field, Filename: name, Err: err}
	}

	if fh.Size > MaxAttachmentSize {
		return Attachment{}, uploadErr(ErrFileTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return Attachment{}, uploadErr(fmt.Errorf("cannot open upload: %w", err))
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, MaxAttachmentSize+1))
	if err != nil {
		return Attachment{}, uploadErr(fmt.Errorf("cannot read upload: %w", err))
	}
	if len(content) > MaxAttachmentSize {
		return Attachment{}, uploadErr(ErrFileTooLarge)
	}

	contentType, err := DetectContentType(field, content)
	if err != nil {
		return Attachment{}, uploadErr(err)
	}

	return Attachment{
		AttachmentMeta: AttachmentMeta{
			Field:       field,
			Filename:    name,
			Size:        int64(len(content)),
			ContentType: contentType,
		},
		Content: content,
	}, nil
}

// DetectContentType sniffs content and checks it against the allow-list and the
// expectations of the multipart field it arrived in.
func DetectContentType(field string, content []byte) (string, error) {
	detected := mimetype.Detect(content)
	if !mimetype.EqualsAny(detected.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: %s", ErrFileType, detected.String())
	}

	ct := strings.SplitN(detected.String(), ";", 2)[0]
	switch field {
	case "screenshot":
		if !strings.HasPrefix(ct, "image/") {
			return "", fmt.Errorf("%w: %s is not an image", ErrFileType, ct)
		}
	case "video":
		if !strings.HasPrefix(ct, "video/") {
			return "", fmt.Errorf("%w: %s is not a video", ErrFileType, ct)
		}
	}
	return ct, nil
}
