package helpdesk

import (
	"encoding/json"
	"fmt"

	"github.com/allears/helpdesk/internal/db/sqlc"
	"github.com/allears/helpdesk/pkg/hd/model"
)

func submissionFromSQLC(s sqlc.Submission) (*Submission, error) {
	sub := &Submission{
		ID:              model.ParseID(s.ID),
		Role:            Role(s.UserRole),
		OtherRole:       model.StringFromNull(s.OtherRole),
		Issue:           Issue(s.IssueType),
		Description:     s.Description,
		FullName:        s.FullName,
		Email:           s.MimsEmail,
		ContactEmail:    s.ContactEmail,
		FormName:        model.StringFromNull(s.FormName),
		FormURL:         model.StringFromNull(s.FormUrl),
		School:          model.StringFromNull(s.School),
		StudentRelated:  s.StudentRelated,
		StudentFullName: model.StringFromNull(s.StudentFullName),
		StudentNRIC:     model.StringFromNull(s.StudentNric),
		StudentMIMS:     model.StringFromNull(s.StudentMims),
		ClickedFAQ:      s.ClickedFaq,
		AddressHash:     model.StringFromNull(s.AddressHash),
		UserAgent:       model.StringFromNull(s.UserAgent),
		CreatedAt:       s.CreatedAt,
	}

	if s.Guidance.Valid && s.Guidance.String != "" {
		var g GuidanceSnapshot
		if err := json.Unmarshal([]byte(s.Guidance.String), &g); err != nil {
			return nil, fmt.Errorf("cannot decode guidance snapshot: %w", err)
		}
		sub.Guidance = &g
	}

	sub.Attachments = []AttachmentMeta{}
	if s.Attachments != "" {
		if err := json.Unmarshal([]byte(s.Attachments), &sub.Attachments); err != nil {
			return nil, fmt.Errorf("cannot decode attachments: %w", err)
		}
	}
	return sub, nil
}

func createParamsFromSubmission(sub *Submission) (sqlc.CreateSubmissionParams, error) {
	var guidance string
	if sub.Guidance != nil {
		data, err := json.Marshal(sub.Guidance)
		if err != nil {
			return sqlc.CreateSubmissionParams{}, fmt.Errorf("cannot encode guidance snapshot: %w", err)
		}
		guidance = string(data)
	}

	attachments := sub.Attachments
	if attachments == nil {
		attachments = []AttachmentMeta{}
	}
	attData, err := json.Marshal(attachments)
	if err != nil {
		return sqlc.CreateSubmissionParams{}, fmt.Errorf("cannot encode attachments: %w", err)
	}

	return sqlc.CreateSubmissionParams{
		ID:              sub.ID.String(),
		UserRole:        string(sub.Role),
		OtherRole:       model.NullString(sub.OtherRole),
		IssueType:       string(sub.Issue),
		Description:     sub.Description,
		FullName:        sub.FullName,
		MimsEmail:       sub.Email,
		ContactEmail:    sub.ContactEmail,
		FormName:        model.NullString(sub.FormName),
		FormUrl:         model.NullString(sub.FormURL),
		School:          model.NullString(sub.School),
		StudentRelated:  sub.StudentRelated,
		StudentFullName: model.NullString(sub.StudentFullName),
		StudentNric:     model.NullString(sub.StudentNRIC),
		StudentMims:     model.NullString(sub.StudentMIMS),
		Guidance:        model.NullString(guidance),
		Attachments:     string(attData),
		ClickedFaq:      sub.ClickedFAQ,
		AddressHash:     model.NullString(sub.AddressHash),
		UserAgent:       model.NullString(sub.UserAgent),
		CreatedAt:       sub.CreatedAt,
	}, nil
}
