package helpdesk

import (
	_ "embed"
	"fmt"
	"net/url"

	"gopkg.in/yaml.v3"
)

//go:embed guidance.yaml
var defaultGuidance []byte

// GuidanceEntry is one row of the guidance table.
type GuidanceEntry struct {
	Role   Role   `json:"role"`
	Issue  Issue  `json:"issue"`
	Action Action `json:"action"`
}

// Table maps (role, issue) to the guidance Action. It is immutable once loaded.
type Table struct {
	actions map[Role]map[Issue]Action
}

type guidanceDoc struct {
	FAQs     map[string]faqDoc              `yaml:"faqs"`
	Messages map[string]string              `yaml:"messages"`
	Roles    map[string]map[string]entryDoc `yaml:"roles"`
}

type faqDoc struct {
	URL   string `yaml:"url"`
	Label string `yaml:"label"`
}

type entryDoc struct {
	FAQ     string `yaml:"faq"`
	Message string `yaml:"message"`
}

// DefaultTable returns the table built from the embedded guidance document.
func DefaultTable() *Table {
	t, err := LoadTable(defaultGuidance)
	if err != nil {
		panic(fmt.Sprintf("embedded guidance table is invalid: %v", err))
	}
	return t
}

// LoadTable parses a guidance YAML document.
func LoadTable(data []byte) (*Table, error) {
	var doc guidanceDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("cannot parse guidance: %w", err)
	}

	for key, faq := range doc.FAQs {
		u, err := url.Parse(faq.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("faq %q: invalid url %q", key, faq.URL)
		}
		if faq.Label == "" {
			return nil, fmt.Errorf("faq %q: missing label", key)
		}
	}

	t := &Table{actions: make(map[Role]map[Issue]Action)}
	for roleKey, issues := range doc.Roles {
		role, ok := ParseRole(roleKey)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", roleKey)
		}
		row := make(map[Issue]Action, len(issues))
		for issueKey, entry := range issues {
			issue, ok := ParseIssue(issueKey)
			if !ok {
				return nil, fmt.Errorf("role %s: unknown issue %q", role, issueKey)
			}
			if issue.SkipsGuidance() {
				return nil, fmt.Errorf("role %s: issue %s never shows guidance", role, issue)
			}
			action, err := doc.resolve(entry)
			if err != nil {
				return nil, fmt.Errorf("role %s, issue %s: %w", role, issue, err)
			}
			row[issue] = action
		}
		t.actions[role] = row
	}
	return t, nil
}

func (d guidanceDoc) resolve(e entryDoc) (Action, error) {
	switch {
	case e.FAQ != "" && e.Message != "":
		return Action{}, fmt.Errorf("entry sets both faq and message")
	case e.FAQ != "":
		faq, ok := d.FAQs[e.FAQ]
		if !ok {
			return Action{}, fmt.Errorf("unknown faq %q", e.FAQ)
		}
		return LinkAction(faq.URL, faq.Label), nil
	case e.Message != "":
		text, ok := d.Messages[e.Message]
		if !ok || text == "" {
			return Action{}, fmt.Errorf("unknown message %q", e.Message)
		}
		return MessageAction(text), nil
	default:
		return NoAction(), nil
	}
}

// Lookup returns the guidance for a pair. It is total: unknown pairs and the
// feature-request/other categories resolve to the None action.
func (t *Table) Lookup(role Role, issue Issue) Action {
	if issue.SkipsGuidance() {
		return NoAction()
	}
	if a, ok := t.actions[role][issue]; ok {
		return a
	}
	return NoAction()
}

// Entries lists the full role x issue matrix in display order.
func (t *Table) Entries() []GuidanceEntry {
	entries := make([]GuidanceEntry, 0, len(Roles)*len(Issues))
	for _, r := range Roles {
		for _, i := range Issues {
			entries = append(entries, GuidanceEntry{Role: r, Issue: i, Action: t.Lookup(r, i)})
		}
	}
	return entries
}
