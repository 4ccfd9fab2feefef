package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestJWTMintAndParse(t *testing.T) {
	m := NewJWTManager("issuer", "aud", "secret")
	tok, err := m.Mint("GLENDER", RoleAccount, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Account != "GLENDER" || claims.Role != RoleAccount || claims.Type != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.SessionID == "" {
		t.Fatalf("expected session id")
	}
}

func TestJWTParseRejectsForeignTokens(t *testing.T) {
	m := NewJWTManager("issuer", "aud", "secret")

	other := NewJWTManager("issuer", "other-aud", "secret")
	tok, _ := other.Mint("GLENDER", RoleAccount, time.Minute)
	if _, err := m.Parse(tok); err == nil {
		t.Fatalf("expected audience mismatch")
	}

	wrongKey := NewJWTManager("issuer", "aud", "other")
	tok, _ = wrongKey.Mint("GLENDER", RoleAccount, time.Minute)
	if _, err := m.Parse(tok); err == nil {
		t.Fatalf("expected signature failure")
	}

	tok, _ = m.Mint("GLENDER", RoleAccount, -time.Minute)
	if _, err := m.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail with ErrInvalidToken, got %v", err)
	}

	foreignIssuer := NewJWTManager("someone-else", "aud", "secret")
	tok, _ = foreignIssuer.Mint("GLENDER", RoleAccount, time.Minute)
	if _, err := m.Parse(tok); err == nil {
		t.Fatalf("expected issuer mismatch")
	}

	if _, err := m.Mint(" ", RoleAccount, time.Minute); err == nil {
		t.Fatalf("expected empty account to fail")
	}
}

func TestContextAuthorizer(t *testing.T) {
	var a ContextAuthorizer

	if err := a.Authorize(context.Background(), "GLENDER"); !errors.Is(err, ErrNoPrincipal) {
		t.Fatalf("expected ErrNoPrincipal, got %v", err)
	}

	ctx := WithPrincipal(context.Background(), Principal{Account: "GLENDER", Role: RoleAdmin})
	if err := a.Authorize(ctx, "GLENDER"); err != nil {
		t.Fatalf("authorize own account: %v", err)
	}
	if err := a.Authorize(ctx, "GBORROWER"); !errors.Is(err, ErrAccountMismatch) {
		t.Fatalf("expected ErrAccountMismatch, got %v", err)
	}
}

func TestAccessCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetAccessCookie(rec, CookieConfig{Secure: true}, "token", time.Minute)
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AccessCookieName || !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("unexpected cookies: %+v", cookies)
	}

	rec = httptest.NewRecorder()
	ClearAccessCookie(rec, CookieConfig{})
	if c := rec.Result().Cookies(); len(c) != 1 || c[0].MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", c)
	}
}
