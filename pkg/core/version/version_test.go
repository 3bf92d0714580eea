package version

import (
	"regexp"
	"strings"
	"testing"
)

var semver = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestServiceVersion(t *testing.T) {
	tests := []struct {
		component string
		want      string
	}{
		{"engine", Engine},
		{"evaluator", Evaluator},
		{"kin", CLI},
		{"cli", CLI},
		{"plc", Platform},
	}

	for _, tt := range tests {
		t.Run(tt.component, func(t *testing.T) {
			got := ServiceVersion(tt.component)
			if got != tt.want {
				t.Errorf("ServiceVersion(%q) = %s, want %s", tt.component, got, tt.want)
			}
			if !semver.MatchString(got) {
				t.Errorf("ServiceVersion(%q) = %q is not x.y.z", tt.component, got)
			}
		})
	}
}

func TestString(t *testing.T) {
	s := String()
	for _, want := range []string{"kinematics " + Platform, "engine " + Engine, "commit " + Commit} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
