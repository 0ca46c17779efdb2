package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestParseUsersCSV(t *testing.T) {
	csvData := `username,password,allowed_hours,role
alice,secret1,10,user
bob,secret2,5,user
carol,secret3,99,admin
`
	users, err := parseUsersCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	alice := users[0]
	if alice.Username != "alice" || alice.AllowedHours != 10 || alice.Role != "user" {
		t.Fatalf("unexpected first row: %+v", alice)
	}
	if alice.UserID == "" {
		t.Fatal("user id not assigned")
	}
	// password must be hashed, and verify against the original
	if alice.Password == "secret1" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(alice.Password), []byte("secret1")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}

	if users[2].Role != "admin" {
		t.Fatalf("expected admin role, got %q", users[2].Role)
	}
}

func TestParseUsersCSVColumnOrderIndependent(t *testing.T) {
	csvData := `role,allowed_hours,username,password
user,8,dave,pw
`
	users, err := parseUsersCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if users[0].Username != "dave" || users[0].AllowedHours != 8 {
		t.Fatalf("columns misread: %+v", users[0])
	}
}

func TestParseUsersCSVRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"missing column", "username,password\nalice,pw\n"},
		{"empty username", "username,password,allowed_hours,role\n,pw,5,user\n"},
		{"bad hours", "username,password,allowed_hours,role\nalice,pw,many,user\n"},
		{"negative hours", "username,password,allowed_hours,role\nalice,pw,-1,user\n"},
		{"bad role", "username,password,allowed_hours,role\nalice,pw,5,boss\n"},
		{"duplicate username", "username,password,allowed_hours,role\nalice,pw,5,user\nalice,pw2,8,user\n"},
		{"no rows", "username,password,allowed_hours,role\n"},
	}
	for _, tc := range cases {
		if _, err := parseUsersCSV(strings.NewReader(tc.data)); err == nil {
			t.Errorf("%s: expected error, got none", tc.name)
		}
	}
}
