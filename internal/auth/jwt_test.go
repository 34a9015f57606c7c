package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	token, err := IssueAccessToken("s3cret", "ops@tap", RoleAnalyst, []string{"melrose"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := VerifyAccessToken(token, "s3cret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "ops@tap" {
		t.Fatalf("expected subject ops@tap, got %s", claims.Subject)
	}
	if !claims.AllowsClient("Melrose") || claims.AllowsClient("fancy") {
		t.Fatalf("unexpected client scope %v", claims.Clients)
	}

	if _, err := VerifyAccessToken(token, "other"); err == nil {
		t.Fatalf("expected wrong secret to fail")
	}
}

func TestVerifyExpired(t *testing.T) {
	token, err := IssueAccessToken("s3cret", "ops", RoleAnalyst, nil, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := VerifyAccessToken(token, "s3cret"); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestAllowsClient(t *testing.T) {
	cases := []struct {
		name     string
		claims   *Claims
		expected bool
	}{
		{name: "nil", claims: nil, expected: false},
		{name: "admin", claims: &Claims{Role: RoleAdmin}, expected: true},
		{name: "wildcard", claims: &Claims{Role: RoleAnalyst, Clients: []string{AllClients}}, expected: true},
		{name: "other client", claims: &Claims{Role: RoleAnalyst, Clients: []string{"fancy"}}, expected: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.claims.AllowsClient("melrose"); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestParseBearerToken(t *testing.T) {
	if got := ParseBearerToken("Bearer abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := ParseBearerToken("Basic abc"); got != "" {
		t.Fatalf("expected empty token, got %q", got)
	}
}
