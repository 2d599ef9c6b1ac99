package auth

import "testing"

func TestSession_IsGuest(t *testing.T) {
	if !(Session{Role: RoleGuest}).IsGuest() {
		t.Fatalf("expected guest")
	}
	if (Session{Role: RoleUser}).IsGuest() {
		t.Fatalf("did not expect guest")
	}
}

func TestClaims_LookupIgnoresCase(t *testing.T) {
	c := Claims{"EmploymentStartDate": "2015-03-01"}

	v, ok := c.Lookup("employmentstartdate")
	if !ok || v != "2015-03-01" {
		t.Fatalf("Lookup() = %q, %v", v, ok)
	}
	if c.Has("AdminClaim") {
		t.Fatalf("unexpected AdminClaim")
	}
	if !(Claims{"AdminClaim": ""}).Has("AdminClaim") {
		t.Fatalf("empty value must still count as present")
	}
}

func TestRoleFromNames(t *testing.T) {
	cases := []struct {
		names []string
		want  Role
	}{
		{nil, RoleGuest},
		{[]string{"User"}, RoleUser},
		{[]string{"user", "ADMIN"}, RoleAdmin},
		{[]string{"Auditor"}, RoleGuest},
	}
	for _, tc := range cases {
		if got := RoleFromNames(tc.names); got != tc.want {
			t.Errorf("RoleFromNames(%v) = %s, want %s", tc.names, got, tc.want)
		}
	}
}

func TestHigher(t *testing.T) {
	if Higher(RoleUser, RoleAdmin) != RoleAdmin {
		t.Fatal("admin outranks user")
	}
	if Higher(RoleUser, RoleGuest) != RoleUser {
		t.Fatal("user outranks guest")
	}
}

func TestSession_InRoleAndDisplayName(t *testing.T) {
	s := Session{Email: "ann@example.com", Roles: []string{"Admin"}}
	if !s.InRole("admin") {
		t.Fatal("InRole should ignore case")
	}
	if s.DisplayName() != "ann@example.com" {
		t.Fatalf("DisplayName() = %q", s.DisplayName())
	}
	s.FirstName, s.LastName = "Ann", "Lee"
	if s.DisplayName() != "Ann Lee" {
		t.Fatalf("DisplayName() = %q", s.DisplayName())
	}
}

func TestStoredRoleNames(t *testing.T) {
	if got := StoredRoleNames(RoleAdmin); len(got) != 1 || got[0] != RoleNameAdmin {
		t.Fatalf("StoredRoleNames(admin) = %v", got)
	}
	if got := StoredRoleNames(RoleUser); len(got) != 1 || got[0] != RoleNameUser {
		t.Fatalf("StoredRoleNames(user) = %v", got)
	}
	if got := StoredRoleNames(RoleGuest); got != nil {
		t.Fatalf("StoredRoleNames(guest) = %v", got)
	}
}
