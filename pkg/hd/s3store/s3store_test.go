package s3store

import "testing"

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		filename string
		want     string
	}{
		{"plain", "helpdesk", "shot.png", "helpdesk/abc/screenshot-shot.png"},
		{"no prefix", "", "shot.png", "abc/screenshot-shot.png"},
		{"path in filename", "helpdesk", "../../etc/shot.png", "helpdesk/abc/screenshot-shot.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ObjectKey(tt.prefix, "abc", "screenshot", tt.filename); got != tt.want {
				t.Errorf("ObjectKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
