package moviebot

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateProfile(t *testing.T) {
	tests := []struct {
		name  string
		p     Profile
		field string
	}{
		{"valid", Profile{UserID: "u", Name: "Ann", Age: 30, Email: "ann@example.com"}, ""},
		{"empty email allowed", Profile{UserID: "u", Age: 0}, ""},
		{"age too high", Profile{UserID: "u", Age: 121}, "age"},
		{"negative age", Profile{UserID: "u", Age: -1}, "age"},
		{"bad email", Profile{UserID: "u", Age: 20, Email: "not-an-email"}, "email"},
		{"missing user id", Profile{Age: 20}, "user_id"},
		{"long name", Profile{UserID: "u", Name: strings.Repeat("x", 101)}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfile(&tt.p)
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
			if !errors.Is(err, ErrValidation) {
				t.Error("should match ErrValidation")
			}
		})
	}
}
