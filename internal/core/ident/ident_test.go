package ident

import "testing"

func TestDirName_Stable(t *testing.T) {
	a := DirName("/home/user/notes.txt")
	b := DirName("/home/user/notes.txt")
	if a != b {
		t.Errorf("DirName not stable: %q != %q", a, b)
	}

	if a == DirName("/home/user/other.txt") {
		t.Error("distinct resources share a directory name")
	}

	if len(a) != 40 {
		t.Errorf("DirName length = %d, want 40 hex chars", len(a))
	}
}

func TestNewMatcher_RejectsInvalidPattern(t *testing.T) {
	if _, err := NewMatcher([]string{"[unclosed"}); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestMatcher_Supported(t *testing.T) {
	m, err := NewMatcher([]string{"**/*.log", "**/node_modules/**"})
	if err != nil {
		t.Fatalf("NewMatcher failed: %v", err)
	}

	cases := []struct {
		name     string
		resource string
		want     bool
	}{
		{name: "plain path", resource: "/home/user/notes.txt", want: true},
		{name: "file scheme", resource: "file:///home/user/notes.txt", want: true},
		{name: "empty", resource: "", want: false},
		{name: "whitespace", resource: "   ", want: false},
		{name: "untitled", resource: "untitled:Untitled-1", want: false},
		{name: "remote scheme", resource: "https://example.com/a.txt", want: false},
		{name: "excluded extension", resource: "/var/app/server.log", want: false},
		{name: "excluded directory", resource: "/repo/node_modules/pkg/index.js", want: false},
		{name: "excluded via scheme", resource: "file:///var/app/server.log", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Supported(tc.resource); got != tc.want {
				t.Errorf("Supported(%q) = %v, want %v", tc.resource, got, tc.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	if got := Path("file:///home/user/a.txt"); got != "/home/user/a.txt" {
		t.Errorf("Path = %q, want %q", got, "/home/user/a.txt")
	}
	if got := Path("/home/user/a.txt"); got != "/home/user/a.txt" {
		t.Errorf("Path = %q, want %q", got, "/home/user/a.txt")
	}
}
