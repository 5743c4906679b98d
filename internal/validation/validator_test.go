package validation

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required,min=4"`
	Mode     string   `json:"mode,omitempty" validate:"omitempty,oneof=a b"`
	IDs      []string `json:"ids" validate:"max=3,dive,required"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     sample
		fields []string
		msg    string
	}{
		{"valid", sample{Email: "a@b.c", Password: "pass"}, nil, ""},
		{"missing email", sample{Password: "pass"}, []string{"email"}, "email is required"},
		{"bad email", sample{Email: "nope", Password: "pass"}, []string{"email"}, "valid email"},
		{"short password", sample{Email: "a@b.c", Password: "x"}, []string{"password"}, "at least 4 characters"},
		{"oneof", sample{Email: "a@b.c", Password: "pass", Mode: "z"}, []string{"mode"}, "one of: a b"},
		{"too many ids", sample{Email: "a@b.c", Password: "pass", IDs: []string{"1", "2", "3", "4"}}, []string{"ids"}, "at most 3"},
		{"both missing", sample{}, []string{"email", "password"}, "email is required; password is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("Struct() = %v, want nil", err)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() = %v, want *Error", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("fields = %+v, want %v", verr.Fields, tt.fields)
			}
			for i, f := range tt.fields {
				if verr.Fields[i].Field != f {
					t.Errorf("field[%d] = %q, want %q", i, verr.Fields[i].Field, f)
				}
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("Error() = %q, want it to contain %q", err.Error(), tt.msg)
			}
		})
	}
}
