package version

import "testing"

func TestShort(t *testing.T) {
	saved := Commit
	defer func() { Commit = saved }()

	Commit = "0123456789abcdef"
	if got := Short(); got != "0123456" {
		t.Errorf("Short() = %q, want 0123456", got)
	}
	Commit = "abc"
	if got := Short(); got != "abc" {
		t.Errorf("Short() = %q, want abc", got)
	}
}
