package helpdesk

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinDescriptionLength is the single description threshold shared by the step gate,
// the browser form and server-side validation.
const MinDescriptionLength = 50

// MaxDescriptionLength bounds the stored description.
const MaxDescriptionLength = 5000

// Role identifies who is asking for help.
type Role string

const (
	RoleSchoolStaff Role = "school-staff"
	RoleHQStaff     Role = "hq-staff"
	RoleStudent     Role = "student"
	RoleParent      Role = "parent"
	RoleOther       Role = "other"
)

// Roles lists every role in display order.
var Roles = []Role{RoleSchoolStaff, RoleHQStaff, RoleStudent, RoleParent, RoleOther}

var roleLabels = map[Role]string{
	RoleSchoolStaff: "School staff",
	RoleHQStaff:     "HQ staff",
	RoleStudent:     "Student",
	RoleParent:      "Parent",
	RoleOther:       "Others",
}

// ParseRole normalises a submitted role value. The legacy value "others" maps to RoleOther.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "others" {
		return RoleOther, true
	}
	r := Role(s)
	_, ok := roleLabels[r]
	return r, ok
}

// Label returns the human-readable role name.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// Issue is the category of problem being reported.
type Issue string

const (
	IssueLogin          Issue = "login"
	IssueCreateForm     Issue = "create-form"
	IssueAudience       Issue = "audience"
	IssuePublish        Issue = "publish"
	IssueResponses      Issue = "responses"
	IssueCollaborators  Issue = "collaborators"
	IssueFeatureRequest Issue = "feature-request"
	IssueOther          Issue = "other"
)

// Issues lists every issue category in display order.
var Issues = []Issue{
	IssueLogin, IssueCreateForm, IssueAudience, IssuePublish,
	IssueResponses, IssueCollaborators, IssueFeatureRequest, IssueOther,
}

var issueLabels = map[Issue]string{
	IssueLogin:          "Login / access",
	IssueCreateForm:     "Creating a form",
	IssueAudience:       "Managing audience",
	IssuePublish:        "Publishing a form",
	IssueResponses:      "Managing responses",
	IssueCollaborators:  "Managing collaborators",
	IssueFeatureRequest: "Feature request",
	IssueOther:          "Other",
}

// ParseIssue normalises a submitted issue value.
func ParseIssue(s string) (Issue, bool) {
	i := Issue(strings.ToLower(strings.TrimSpace(s)))
	_, ok := issueLabels[i]
	return i, ok
}

// Label returns the human-readable issue name.
func (i Issue) Label() string {
	if l, ok := issueLabels[i]; ok {
		return l
	}
	return string(i)
}

// SkipsGuidance reports whether the category bypasses FAQ guidance entirely.
func (i Issue) SkipsGuidance() bool {
	return i == IssueFeatureRequest || i == IssueOther
}

// ActionKind discriminates the Action variant.
type ActionKind string

const (
	ActionNone    ActionKind = "none"
	ActionLink    ActionKind = "link"
	ActionMessage ActionKind = "message"
)

// Action is the guidance shown for a (role, issue) pair: a FAQ link, an informational
// message, or nothing.
type Action struct {
	Kind  ActionKind `json:"kind"`
	URL   string     `json:"url,omitempty"`
	Label string     `json:"label,omitempty"`
	Text  string     `json:"text,omitempty"`
}

// NoAction returns the None variant.
func NoAction() Action {
	return Action{Kind: ActionNone}
}

// LinkAction returns a Link variant.
func LinkAction(url, label string) Action {
	return Action{Kind: ActionLink, URL: url, Label: label}
}

// MessageAction returns a Message variant.
func MessageAction(text string) Action {
	return Action{Kind: ActionMessage, Text: text}
}

// IsNone reports whether no guidance is shown.
func (a Action) IsNone() bool {
	return a.Kind == "" || a.Kind == ActionNone
}

// RequiresAcknowledgement reports whether the user must confirm having read the guidance.
func (a Action) RequiresAcknowledgement() bool {
	return a.Kind == ActionLink || a.Kind == ActionMessage
}

// FormState is the browser-side form content that drives the step gate.
type FormState struct {
	Role           Role   `json:"role"`
	Issue          Issue  `json:"issue"`
	Description    string `json:"description"`
	Acknowledged   bool   `json:"acknowledged"`
	StudentRelated bool   `json:"studentRelated"`
	Attachments    int    `json:"attachments"`
}

// GuidanceSnapshot records the guidance that was shown when a ticket was filed.
type GuidanceSnapshot struct {
	Action       Action `json:"action"`
	Acknowledged bool   `json:"acknowledged"`
}

// AttachmentMeta describes an uploaded file. File contents are never stored in the database.
type AttachmentMeta struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	ArchiveKey  string `json:"archive_key,omitempty"`
}

// Submission is one persisted helpdesk ticket. It is never modified after creation.
type Submission struct {
	ID              uuid.UUID         `json:"id"`
	Role            Role              `json:"role"`
	OtherRole       string            `json:"other_role,omitempty"`
	Issue           Issue             `json:"issue"`
	Description     string            `json:"description"`
	FullName        string            `json:"full_name"`
	Email           string            `json:"email"`
	ContactEmail    string            `json:"contact_email"`
	FormName        string            `json:"form_name,omitempty"`
	FormURL         string            `json:"form_url,omitempty"`
	School          string            `json:"school,omitempty"`
	StudentRelated  bool              `json:"student_related"`
	StudentFullName string            `json:"student_full_name,omitempty"`
	StudentNRIC     string            `json:"student_nric,omitempty"`
	StudentMIMS     string            `json:"student_mims,omitempty"`
	Guidance        *GuidanceSnapshot `json:"guidance,omitempty"`
	Attachments     []AttachmentMeta  `json:"attachments"`
	ClickedFAQ      bool              `json:"clicked_faq"`
	AddressHash     string            `json:"-"`
	UserAgent       string            `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Reference returns a short ticket reference for display.
func (s *Submission) Reference() string {
	return strings.ToUpper(s.ID.String()[:8])
}

// MaskedNRIC hides all but the last four characters of the student identifier.
func (s *Submission) MaskedNRIC() string {
	n := len(s.StudentNRIC)
	if n <= 4 {
		return s.StudentNRIC
	}
	return strings.Repeat("*", n-4) + s.StudentNRIC[n-4:]
}
