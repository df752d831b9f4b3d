package helpdesk

import (
	"strings"
	"time"
	"unicode/utf8"
)

// SkipRevealDelay is how long the browser waits before revealing the description step
// for categories that bypass guidance. It is a debounce for presentation only; the gate
// itself resolves immediately.
const SkipRevealDelay = 500 * time.Millisecond

// State is a step of the intake form.
type State int

const (
	StateEmpty               State = iota // S0: role or issue missing
	StateRoleAndIssueChosen               // S1: both chosen, guidance not yet resolved
	StateGuidanceResolved                 // S2: guidance shown, waiting for acknowledgement
	StateDescriptionUnlocked              // S3: description step open
	StateSubmittableReady                 // S4: description long enough, details step open
)

var stateNames = [...]string{
	"empty",
	"role-and-issue-chosen",
	"guidance-resolved",
	"description-unlocked",
	"submittable-ready",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Section is a block of the form page that can be shown or hidden.
type Section string

const (
	SectionRoleAndIssue    Section = "role-issue"
	SectionOtherRole       Section = "other-role"
	SectionGuidance        Section = "guidance"
	SectionAcknowledgement Section = "acknowledgement"
	SectionDescription     Section = "description"
	SectionDetails         Section = "details"
	SectionStudentToggle   Section = "student-toggle"
	SectionStudentDetails  Section = "student-details"
)

// Projection is everything the page needs to render a FormState.
type Projection struct {
	State                State     `json:"state"`
	Sections             []Section `json:"sections"`
	Required             []string  `json:"required"`
	Guidance             Action    `json:"guidance"`
	RevealDelayMS        int64     `json:"revealDelayMs"`
	DescriptionLength    int       `json:"descriptionLength"`
	MinDescriptionLength int       `json:"minDescriptionLength"`
	ReadyToSubmit        bool      `json:"readyToSubmit"`
}

// Visible reports whether a section is part of the projection.
func (p Projection) Visible(s Section) bool {
	for _, v := range p.Sections {
		if v == s {
			return true
		}
	}
	return false
}

// DescriptionLength counts characters of the trimmed description.
func DescriptionLength(description string) int {
	return utf8.RuneCountInString(strings.TrimSpace(description))
}

// DescriptionSufficient reports whether the description meets MinDescriptionLength.
func DescriptionSufficient(description string) bool {
	return DescriptionLength(description) >= MinDescriptionLength
}

// Gate is the step-gating state machine for one form. It performs no I/O and is not
// safe for concurrent use.
type Gate struct {
	table  *Table
	form   FormState
	action Action
	state  State
}

// NewGate returns a gate in StateEmpty.
func NewGate(table *Table) *Gate {
	return &Gate{table: table, action: NoAction()}
}

// State returns the current step.
func (g *Gate) State() State {
	return g.state
}

// Action returns the resolved guidance, None before resolution.
func (g *Gate) Action() Action {
	return g.action
}

// Form returns a copy of the tracked form content.
func (g *Gate) Form() FormState {
	return g.form
}

// ReadyToSubmit reports whether the gate reached StateSubmittableReady.
func (g *Gate) ReadyToSubmit() bool {
	return g.state == StateSubmittableReady
}

// SetRole changes the role. A change discards guidance and acknowledgement progress.
func (g *Gate) SetRole(r Role) State {
	if r == g.form.Role {
		return g.state
	}
	g.form.Role = r
	return g.reset()
}

// SetIssue changes the issue category. A change discards guidance and acknowledgement progress.
func (g *Gate) SetIssue(i Issue) State {
	if i == g.form.Issue {
		return g.state
	}
	g.form.Issue = i
	return g.reset()
}

// Resolve runs the guidance lookup, moving S1 to S2 and onward where nothing blocks.
// It is a no-op in any other state.
func (g *Gate) Resolve() State {
	if g.state != StateRoleAndIssueChosen {
		return g.state
	}
	g.action = g.table.Lookup(g.form.Role, g.form.Issue)
	g.state = StateGuidanceResolved
	g.advance()
	return g.state
}

// SetAcknowledged records the guidance acknowledgement. Clearing it after S3 returns to S2.
func (g *Gate) SetAcknowledged(v bool) State {
	g.form.Acknowledged = v
	g.advance()
	return g.state
}

// SetDescription records the description and moves between S3 and S4.
func (g *Gate) SetDescription(d string) State {
	g.form.Description = d
	g.advance()
	return g.state
}

// SetStudentRelated toggles the student details section. It never changes the state.
func (g *Gate) SetStudentRelated(v bool) {
	g.form.StudentRelated = v
}

// SetAttachments records how many files are queued for upload.
func (g *Gate) SetAttachments(n int) {
	g.form.Attachments = n
}

func (g *Gate) reset() State {
	g.form.Acknowledged = false
	g.action = NoAction()
	if g.form.Role == "" || g.form.Issue == "" {
		g.state = StateEmpty
	} else {
		g.state = StateRoleAndIssueChosen
	}
	return g.state
}

// advance recomputes S2..S4 from the form once guidance is resolved.
func (g *Gate) advance() {
	if g.state < StateGuidanceResolved {
		return
	}
	g.state = StateGuidanceResolved
	if g.action.RequiresAcknowledgement() && !g.form.Acknowledged {
		return
	}
	g.state = StateDescriptionUnlocked
	if DescriptionSufficient(g.form.Description) {
		g.state = StateSubmittableReady
	}
}

// Projection renders the gate's current state.
func (g *Gate) Projection() Projection {
	return Project(g.state, g.form, g.action)
}

// Project is the pure render function: state, form content and resolved guidance in,
// visible sections and required fields out.
func Project(state State, form FormState, action Action) Projection {
	p := Projection{
		State:                state,
		Sections:             []Section{SectionRoleAndIssue},
		Required:             []string{"userRole", "issueType"},
		Guidance:             NoAction(),
		DescriptionLength:    DescriptionLength(form.Description),
		MinDescriptionLength: MinDescriptionLength,
		ReadyToSubmit:        state == StateSubmittableReady,
	}
	if form.Role == RoleOther {
		p.Sections = append(p.Sections, SectionOtherRole)
	}

	if state >= StateGuidanceResolved {
		p.Guidance = action
		if !action.IsNone() {
			p.Sections = append(p.Sections, SectionGuidance)
		}
		if action.RequiresAcknowledgement() {
			p.Sections = append(p.Sections, SectionAcknowledgement)
			p.Required = append(p.Required, "acknowledged")
		}
		if form.Issue.SkipsGuidance() {
			p.RevealDelayMS = SkipRevealDelay.Milliseconds()
		}
	}

	if state >= StateDescriptionUnlocked {
		p.Sections = append(p.Sections, SectionDescription)
		p.Required = append(p.Required, "description")
	}

	if state == StateSubmittableReady {
		p.Sections = append(p.Sections, SectionDetails)
		p.Required = append(p.Required, "fullName", "email", "contactEmail")
		if form.Role != RoleStudent {
			p.Sections = append(p.Sections, SectionStudentToggle)
			if form.StudentRelated {
				p.Sections = append(p.Sections, SectionStudentDetails)
				p.Required = append(p.Required, "studentFullName", "studentNRIC", "studentMIMS")
			}
		}
	}

	return p
}

// Evaluate replays a form snapshot through a fresh gate, the way the page would reach it
// one field at a time.
func Evaluate(table *Table, form FormState) Projection {
	g := NewGate(table)
	g.SetRole(form.Role)
	g.SetIssue(form.Issue)
	g.Resolve()
	g.SetAcknowledged(form.Acknowledged)
	g.SetDescription(form.Description)
	g.SetStudentRelated(form.StudentRelated)
	g.SetAttachments(form.Attachments)
	return g.Projection()
}
