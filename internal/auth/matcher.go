package auth

import (
	"crypto/subtle"

	"github.com/juju/errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordMatcher compares a stored password with the one the operator typed.
type PasswordMatcher interface {
	Match(stored, given string) bool
}

// PlainMatcher compares plaintext passwords, as stored by the existing schema.
type PlainMatcher struct{}

// Match implements PasswordMatcher.
func (PlainMatcher) Match(stored, given string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

// BcryptMatcher compares against bcrypt hashes.
type BcryptMatcher struct{}

// Match implements PasswordMatcher.
func (BcryptMatcher) Match(stored, given string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
}

// MatcherFor returns the matcher for a PASSWORD_SCHEME value.
func MatcherFor(scheme string) (PasswordMatcher, error) {
	switch scheme {
	case "", "plain":
		return PlainMatcher{}, nil
	case "bcrypt":
		return BcryptMatcher{}, nil
	}
	return nil, errors.NotSupportedf("password scheme %q", scheme)
}
