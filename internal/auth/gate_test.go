package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiaot623/catalogbot/internal/domain"
)

type fakeSource struct {
	creds []domain.Credential
	err   error
	calls int
}

func (f *fakeSource) FindCredentials(_ context.Context, username string) ([]domain.Credential, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Credential
	for _, c := range f.creds {
		if c.Username == username {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestPolicy(t *testing.T, roles ...string) *Policy {
	t.Helper()
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	p, err := NewPolicy(context.Background(), DefaultPolicy, roles)
	require.NoError(t, err)
	return p
}

func TestGateVerifyAdmin(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{creds: []domain.Credential{
		{ID: 1, Username: "alice", Password: "secret", Role: "admin"},
		{ID: 2, Username: "bob", Password: "hunter2", Role: "customer"},
	}}
	gate := NewGate(src, PlainMatcher{}, newTestPolicy(t))

	assert.True(t, gate.VerifyAdmin(ctx, "alice", "secret"))
	assert.False(t, gate.VerifyAdmin(ctx, "alice", "wrong"))
	assert.False(t, gate.VerifyAdmin(ctx, "bob", "hunter2"), "non-admin role must be rejected")
	assert.False(t, gate.VerifyAdmin(ctx, "nobody", "secret"))
	assert.False(t, gate.VerifyAdmin(ctx, "alice", ""))
}

func TestGateFailsClosedOnDataAccessError(t *testing.T) {
	src := &fakeSource{err: domain.ErrDataAccess}
	gate := NewGate(src, PlainMatcher{}, newTestPolicy(t))

	assert.False(t, gate.VerifyAdmin(context.Background(), "alice", "secret"))
	assert.Equal(t, 1, src.calls)
}

func TestGateDuplicateUsernames(t *testing.T) {
	src := &fakeSource{creds: []domain.Credential{
		{ID: 1, Username: "carol", Password: "pw", Role: "customer"},
		{ID: 2, Username: "carol", Password: "pw", Role: "admin"},
	}}
	gate := NewGate(src, nil, newTestPolicy(t))

	assert.True(t, gate.VerifyAdmin(context.Background(), "carol", "pw"))
}

func TestGateConfiguredRoles(t *testing.T) {
	src := &fakeSource{creds: []domain.Credential{
		{ID: 1, Username: "olga", Password: "pw", Role: "owner"},
		{ID: 2, Username: "alice", Password: "pw", Role: "admin"},
	}}
	gate := NewGate(src, PlainMatcher{}, newTestPolicy(t, "owner"))

	assert.True(t, gate.VerifyAdmin(context.Background(), "olga", "pw"))
	assert.False(t, gate.VerifyAdmin(context.Background(), "alice", "pw"))
}

func TestGateBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	src := &fakeSource{creds: []domain.Credential{{ID: 1, Username: "alice", Password: string(hash), Role: "admin"}}}
	gate := NewGate(src, BcryptMatcher{}, newTestPolicy(t))

	assert.True(t, gate.VerifyAdmin(context.Background(), "alice", "secret"))
	assert.False(t, gate.VerifyAdmin(context.Background(), "alice", string(hash)))
}

func TestMatcherFor(t *testing.T) {
	m, err := MatcherFor("plain")
	require.NoError(t, err)
	assert.IsType(t, PlainMatcher{}, m)

	m, err = MatcherFor("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptMatcher{}, m)

	_, err = MatcherFor("md5")
	assert.Error(t, err)
}

func TestPolicyRejectsBrokenModule(t *testing.T) {
	_, err := NewPolicy(context.Background(), "package credential_policy\nadmin if {", nil)
	assert.Error(t, err)
}

func TestPolicyIsPrivileged(t *testing.T) {
	p := newTestPolicy(t, "admin", "owner")

	ok, err := p.IsPrivileged(context.Background(), "x", "owner")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.IsPrivileged(context.Background(), "x", "customer")
	require.NoError(t, err)
	assert.False(t, ok)
}
