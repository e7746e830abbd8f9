package version

import "testing"

func TestStringDefaultsToVersionOnly(t *testing.T) {
	v := String()
	if v == "" {
		t.Fatal("String() must not be empty")
	}
	if commit == "" && v != version {
		t.Errorf("String() = %q, want %q", v, version)
	}
}

func TestStringIncludesStampedCommit(t *testing.T) {
	old := commit
	commit = "abc1234"
	defer func() { commit = old }()

	if got, want := String(), version+" (abc1234)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
