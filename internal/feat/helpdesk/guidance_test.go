package helpdesk

import (
	"strings"
	"testing"
)

func TestLookupTotalAndDeterministic(t *testing.T) {
	table := DefaultTable()

	for _, r := range Roles {
		for _, i := range Issues {
			first := table.Lookup(r, i)
			if first.Kind == "" {
				t.Errorf("Lookup(%s, %s) returned an undefined action", r, i)
			}
			for n := 0; n < 3; n++ {
				if got := table.Lookup(r, i); got != first {
					t.Errorf("Lookup(%s, %s) not deterministic: %+v then %+v", r, i, first, got)
				}
			}
		}
	}

	if got := table.Lookup(Role("janitor"), IssueLogin); !got.IsNone() {
		t.Errorf("Lookup(unknown role) = %+v, want None", got)
	}
}

func TestLookupDefaultTable(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name  string
		role  Role
		issue Issue
		kind  ActionKind
		match string
	}{
		{"staff login faq", RoleSchoolStaff, IssueLogin, ActionLink, "h.ryhumy7aab84"},
		{"hq staff publish faq", RoleHQStaff, IssuePublish, ActionLink, "h.xy36wnjb82us"},
		{"other role collaborators faq", RoleOther, IssueCollaborators, ActionLink, "h.tgk70eexxa5t"},
		{"student login message", RoleStudent, IssueLogin, ActionMessage, "Local MIMS administrator"},
		{"parent login message", RoleParent, IssueLogin, ActionMessage, "form teacher"},
		{"student create form message", RoleStudent, IssueCreateForm, ActionMessage, "only available to school staff"},
		{"parent responses faq", RoleParent, IssueResponses, ActionLink, "h.bibpeqh67til"},
		{"feature request skips", RoleSchoolStaff, IssueFeatureRequest, ActionNone, ""},
		{"other issue skips", RoleStudent, IssueOther, ActionNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Lookup(tt.role, tt.issue)
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %s, want %s", got.Kind, tt.kind)
			}
			if tt.match != "" && !strings.Contains(got.URL+got.Text, tt.match) {
				t.Errorf("action %+v does not contain %q", got, tt.match)
			}
		})
	}
}

func TestLoadTableErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed yaml", "roles: [unclosed"},
		{"unknown role", "roles:\n  janitor:\n    login: {}\n"},
		{"unknown issue", "roles:\n  parent:\n    billing: {}\n"},
		{"skip issue listed", "messages:\n  m: hi\nroles:\n  parent:\n    feature-request: {message: m}\n"},
		{"unknown faq", "roles:\n  parent:\n    login: {faq: nope}\n"},
		{"unknown message", "roles:\n  parent:\n    login: {message: nope}\n"},
		{"faq and message", "faqs:\n  f: {url: https://x.test/a, label: A}\nmessages:\n  m: hi\nroles:\n  parent:\n    login: {faq: f, message: m}\n"},
		{"relative faq url", "faqs:\n  f: {url: /faqs, label: A}\n"},
		{"faq without label", "faqs:\n  f: {url: https://x.test/a}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTable([]byte(tt.doc)); err == nil {
				t.Error("LoadTable() expected error")
			}
		})
	}
}

func TestLoadTableOverridesSkipIssues(t *testing.T) {
	doc := "faqs:\n  f: {url: https://x.test/a, label: A}\nroles:\n  parent:\n    login: {faq: f}\n    audience: {}\n"
	table, err := LoadTable([]byte(doc))
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	if got := table.Lookup(RoleParent, IssueLogin); got != LinkAction("https://x.test/a", "A") {
		t.Errorf("Lookup(parent, login) = %+v", got)
	}
	if got := table.Lookup(RoleParent, IssueAudience); !got.IsNone() {
		t.Errorf("empty entry should resolve to None, got %+v", got)
	}
	if got := table.Lookup(RoleSchoolStaff, IssueLogin); !got.IsNone() {
		t.Errorf("missing role should resolve to None, got %+v", got)
	}
}

func TestEntriesCoversMatrix(t *testing.T) {
	entries := DefaultTable().Entries()
	if len(entries) != len(Roles)*len(Issues) {
		t.Fatalf("Entries() = %d rows, want %d", len(entries), len(Roles)*len(Issues))
	}
	if entries[0].Role != RoleSchoolStaff || entries[0].Issue != IssueLogin {
		t.Errorf("first entry = %s/%s, want display order", entries[0].Role, entries[0].Issue)
	}
}

func TestParseRoleAlias(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"school-staff", RoleSchoolStaff, true},
		{" Parent ", RoleParent, true},
		{"others", RoleOther, true},
		{"other", RoleOther, true},
		{"", "", false},
		{"teacher", "teacher", false},
	}
	for _, tt := range tests {
		got, ok := ParseRole(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDefaultMessagesKeepMarkers(t *testing.T) {
	table := DefaultTable()
	tests := []struct {
		role   Role
		issue  Issue
		prefix string
	}{
		{RoleStudent, IssueLogin, "🔔 Students:"},
		{RoleParent, IssueLogin, "👨‍👧 Parents:"},
		{RoleStudent, IssuePublish, "🚫 Form creation"},
		{RoleParent, IssueCollaborators, "🚫 Form creation"},
	}
	for _, tt := range tests {
		got := table.Lookup(tt.role, tt.issue)
		if !strings.HasPrefix(got.Text, tt.prefix) {
			t.Errorf("Lookup(%s, %s).Text = %q, want prefix %q", tt.role, tt.issue, got.Text, tt.prefix)
		}
	}
}
