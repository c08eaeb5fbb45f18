package auth

import (
	"context"

	"github.com/juju/errors"
	"github.com/open-policy-agent/opa/rego"
)

// Policy decides whether a stored role grants console access.
type Policy struct {
	query           rego.PreparedEvalQuery
	privilegedRoles []string
}

// NewPolicy prepares the role policy. privilegedRoles is passed to the
// policy as input.privileged_roles on every evaluation.
func NewPolicy(ctx context.Context, policyContent string, privilegedRoles []string) (*Policy, error) {
	r := rego.New(
		rego.Query("data.credential_policy.admin"),
		rego.Module("credential_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to prepare rego")
	}

	return &Policy{
		query:           query,
		privilegedRoles: append([]string(nil), privilegedRoles...),
	}, nil
}

// IsPrivileged evaluates the policy for the credential's role.
func (p *Policy) IsPrivileged(ctx context.Context, username, role string) (bool, error) {
	input := map[string]interface{}{
		"username":         username,
		"role":             role,
		"privileged_roles": p.privilegedRoles,
	}

	results, err := p.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, errors.Annotate(err, "failed to evaluate policy")
	}

	// An undefined decision means no rule granted access.
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return false, errors.Errorf("policy returned %T, want bool", results[0].Expressions[0].Value)
	}
	return allowed, nil
}

// DefaultPolicy grants access to the roles listed in input.privileged_roles.
const DefaultPolicy = `
package credential_policy

import rego.v1

default admin := false

admin if {
	input.role in input.privileged_roles
}
`
