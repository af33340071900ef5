package domain

import "testing"

func TestSessionOther(t *testing.T) {
	s := NewSession("init", "resp")
	if s.ID == "" {
		t.Fatal("session minted without id")
	}

	tests := []struct {
		name   string
		member ParticipantID
		want   ParticipantID
		ok     bool
	}{
		{"initiator side", "init", "resp", true},
		{"responder side", "resp", "init", true},
		{"stranger", "other", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Other(tt.member)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Other(%s) = %v,%v, want %v,%v", tt.member, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestProfileDisplayName(t *testing.T) {
	if got := (Profile{Name: "Alice"}).DisplayName(); got != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", got)
	}
	if got := (Profile{}).DisplayName(); got != "anonymous" {
		t.Errorf("DisplayName = %q, want the placeholder", got)
	}
}
