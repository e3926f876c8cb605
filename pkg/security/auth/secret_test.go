package auth

import "testing"

func TestSecretValidator_Validate(t *testing.T) {
	tests := []struct {
		name      string
		secrets   []string
		candidate string
		want      bool
	}{
		{"match", []string{"s3cret"}, "s3cret", true},
		{"mismatch", []string{"s3cret"}, "s3cre", false},
		{"empty candidate", []string{"s3cret"}, "", false},
		{"no secrets configured", nil, "anything", false},
		{"empty secrets ignored", []string{""}, "", false},
		{"second of two", []string{"old", "new"}, "new", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewSecretValidator(tt.secrets...)
			if got := v.Validate(tt.candidate); got != tt.want {
				t.Errorf("Validate(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestSecretValidator_Rotate(t *testing.T) {
	v := NewSecretValidator("first")
	if !v.Configured() {
		t.Fatal("expected validator to be configured")
	}

	v.Rotate("second")
	if v.Validate("first") {
		t.Error("old secret still accepted after rotation")
	}
	if !v.Validate("second") {
		t.Error("new secret rejected after rotation")
	}

	v.Rotate()
	if v.Configured() {
		t.Error("expected no secrets after empty rotation")
	}
}
