package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoPrincipal     = errors.New("no authenticated caller")
	ErrAccountMismatch = errors.New("caller does not control account")
)

type Principal struct {
	Account string
	Role    string
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.Account != ""
}

// ContextAuthorizer accepts an operation only when the authenticated caller
// in ctx is the account whose funds move. Admin tokens get no exemption.
type ContextAuthorizer struct{}

func (ContextAuthorizer) Authorize(ctx context.Context, account string) error {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return ErrNoPrincipal
	}
	if p.Account != strings.TrimSpace(account) {
		return fmt.Errorf("%w: %s", ErrAccountMismatch, account)
	}
	return nil
}
