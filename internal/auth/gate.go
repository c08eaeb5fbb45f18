// Package auth implements the credential gate that guards the console.
package auth

import (
	"context"

	"github.com/juju/loggo/v2"

	"github.com/xiaot623/catalogbot/internal/domain"
)

var logger = loggo.GetLogger("catalogbot.auth")

// Verifier checks operator credentials.
type Verifier interface {
	// VerifyAdmin reports whether the username/password pair belongs to a
	// privileged account. Any failure counts as not verified.
	VerifyAdmin(ctx context.Context, username, password string) bool
}

// CredentialSource loads candidate credentials by username.
type CredentialSource interface {
	FindCredentials(ctx context.Context, username string) ([]domain.Credential, error)
}

// Gate verifies credentials against the customers table and the role policy.
type Gate struct {
	source  CredentialSource
	matcher PasswordMatcher
	policy  *Policy
}

// NewGate creates a credential gate.
func NewGate(source CredentialSource, matcher PasswordMatcher, policy *Policy) *Gate {
	if matcher == nil {
		matcher = PlainMatcher{}
	}
	return &Gate{
		source:  source,
		matcher: matcher,
		policy:  policy,
	}
}

// VerifyAdmin implements Verifier. It fails closed.
func (g *Gate) VerifyAdmin(ctx context.Context, username, password string) bool {
	creds, err := g.source.FindCredentials(ctx, username)
	if err != nil {
		logger.Warningf("credential lookup for %q failed: %v", username, err)
		return false
	}

	for _, cred := range creds {
		if !g.matcher.Match(cred.Password, password) {
			continue
		}
		ok, err := g.policy.IsPrivileged(ctx, cred.Username, cred.Role)
		if err != nil {
			logger.Errorf("role policy for %q failed: %v", username, err)
			return false
		}
		if ok {
			logger.Infof("operator %q verified", username)
			return true
		}
	}

	logger.Infof("operator %q rejected", username)
	return false
}
