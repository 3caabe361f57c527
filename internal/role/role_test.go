package role

import "testing"

func TestToRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{in: "admin", want: RoleAdmin},
		{in: "user", want: RoleUser},
		{in: "upload", want: RoleUnknown},
		{in: "", want: RoleUnknown},
	}
	for _, tt := range tests {
		got := ToRole(tt.in)
		if got != tt.want {
			t.Errorf("ToRole(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.want != RoleUnknown && got.String() != tt.in {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), tt.in)
		}
	}
	if RoleUnknown >= RoleUser || RoleUser >= RoleAdmin {
		t.Error("roles must be ordered unknown < user < admin")
	}
}
