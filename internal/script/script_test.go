package script

import (
	"reflect"
	"testing"
)

func TestAppendPadding(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"units real", "units               real"},
		{"fix  1 all nvt", "fix                 1 all nvt"},
		{"run 5000", "run                 5000"},
	}
	for _, test := range tests {
		var s Script
		s.Append(test.in)
		if got := s.Lines()[0]; got != test.want {
			t.Errorf("Append(%q) = %q, wanted %q", test.in, got, test.want)
		}
	}
}

func TestWrap(t *testing.T) {
	got := wrap("aa bb cc dd", 5)
	want := []string{"aa bb", "cc dd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, wanted %v", got, want)
	}
	if wrap("", 10) != nil {
		t.Errorf("wrapping empty text produced lines")
	}
}

func TestParseType(t *testing.T) {
	for name, want := range typeNames {
		got, err := ParseType(name)
		if err != nil || got != want {
			t.Errorf("ParseType(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseType("md"); err == nil {
		t.Errorf("unknown type accepted")
	}
}
