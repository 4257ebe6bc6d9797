package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestResolveBuildMeta tests version resolution.
func TestResolveBuildMeta(t *testing.T) {
	meta := resolveBuildMeta()
	if meta.version == "" {
		t.Error("expected non-empty version string")
	}
	if got := getVersion(); got != meta.version {
		t.Errorf("getVersion() = %q, want %q", got, meta.version)
	}
}

// TestShortRevision tests revision abbreviation.
func TestShortRevision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "long revision truncated", in: "0123456789abcdef", want: "0123456"},
		{name: "short revision kept", in: "abc", want: "abc"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := shortRevision(tt.in); got != tt.want {
				t.Errorf("shortRevision(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestVersionCmd tests the version command output.
func TestVersionCmd(t *testing.T) {
	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, "mirrordex ") {
		t.Errorf("expected version line, got %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("expected trailing newline")
	}
}
