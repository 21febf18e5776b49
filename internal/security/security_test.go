package security

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, errHash := HashPassword("s3cret")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if hash == "s3cret" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestUserTokenRoundTrip(t *testing.T) {
	token, errIssue := IssueUserToken("test-secret", 42, "admin", time.Hour)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}

	claims, errParse := ParseUserToken("test-secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.UserID != 42 {
		t.Errorf("user ID = %d, want 42", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("role = %s, want admin", claims.Role)
	}
}

func TestParseUserTokenWrongSecret(t *testing.T) {
	token, errIssue := IssueUserToken("test-secret", 42, "user", time.Hour)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}
	if _, errParse := ParseUserToken("other-secret", token); errParse == nil {
		t.Fatal("token parsed with wrong secret")
	}
}

func TestParseUserTokenExpired(t *testing.T) {
	token, errIssue := IssueUserToken("test-secret", 42, "user", -time.Minute)
	if errIssue != nil {
		t.Fatalf("issue token: %v", errIssue)
	}
	if _, errParse := ParseUserToken("test-secret", token); errParse == nil {
		t.Fatal("expired token accepted")
	}
}

func TestIssueUserTokenMissingSecret(t *testing.T) {
	if _, errIssue := IssueUserToken("", 1, "user", time.Hour); errIssue == nil {
		t.Fatal("issued token without a secret")
	}
}
