package cli

import (
	"testing"

	"github.com/matzehuels/viewgrid/pkg/session"
)

func TestSubjectLabel(t *testing.T) {
	tests := []struct {
		name string
		sess *session.Session
		want string
	}{
		{"nil", nil, "no image"},
		{"unbound", &session.Session{}, "no image"},
		{"no location", &session.Session{ImageID: "42"}, "42"},
		{"located", &session.Session{ImageID: "42", Location: session.Location{Lat: 47.5, Lon: 8.25}}, "42 @ 47.5~8.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subjectLabel(tt.sess); got != tt.want {
				t.Errorf("subjectLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
