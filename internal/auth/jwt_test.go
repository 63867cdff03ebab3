package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("admin", RoleAdmin, "eventcheck", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := Parse(pair.AccessToken, "secret", "eventcheck")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "admin" || claims.Role != RoleAdmin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParse_WrongKey(t *testing.T) {
	pair, err := Issue("admin", RoleAdmin, "eventcheck", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "other", "eventcheck"); err == nil {
		t.Error("token signed with different key should not parse")
	}
}

func TestParse_IssuerMismatch(t *testing.T) {
	pair, err := Issue("admin", RoleAdmin, "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "eventcheck"); err == nil {
		t.Error("issuer mismatch should fail")
	}
}

func TestParse_Expired(t *testing.T) {
	pair, err := Issue("admin", RoleAdmin, "eventcheck", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "eventcheck"); err == nil {
		t.Error("expired token should fail")
	}
}
