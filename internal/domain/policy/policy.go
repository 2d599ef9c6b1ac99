// Package policy evaluates named authorization policies against a principal's claims.
//
// Policies are a closed set of requirement variants compiled once at startup into a
// name-to-evaluator table. Evaluation is a pure function of the claims, the requirement
// parameters and the clock reading; missing or malformed claims deny rather than error.
package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	domainauth "github.com/target/staff-portal/internal/domain/auth"
)

// Name identifies a registered policy.
type Name string

const (
	AdminClaimPolicy  Name = "AdminClaimPolicy"
	FiveYearsEmployee Name = "FiveYearsEmployee"
)

// Claim types read by the default policies.
const (
	ClaimAdmin               = "AdminClaim"
	ClaimEmploymentStartDate = "EmploymentStartDate"
)

// Requirement is one condition of a policy. The variants are ClaimPresence and MinimumTenure.
type Requirement interface {
	requirement()
}

// ClaimPresence is satisfied when the principal carries a claim of ClaimType, any value.
type ClaimPresence struct {
	ClaimType string
}

// MinimumTenure is satisfied when the date in ClaimType lies at least Years full calendar years
// before the evaluation date.
type MinimumTenure struct {
	ClaimType string
	Years     int
}

func (ClaimPresence) requirement() {}
func (MinimumTenure) requirement() {}

// Definition binds a policy name to its requirements. All requirements must pass.
type Definition struct {
	Name         Name
	Requirements []Requirement
}

// DefaultDefinitions returns the policies the application registers at startup.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: AdminClaimPolicy, Requirements: []Requirement{ClaimPresence{ClaimType: ClaimAdmin}}},
		{Name: FiveYearsEmployee, Requirements: []Requirement{MinimumTenure{ClaimType: ClaimEmploymentStartDate, Years: 5}}},
	}
}

// Clock supplies the evaluation instant.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Evaluator decides a single policy for a set of claims.
type Evaluator func(claims domainauth.Claims) bool

// Registry maps policy names to compiled evaluators. It is immutable after construction.
type Registry struct {
	evaluators map[Name]Evaluator
}

// NewRegistry compiles defs into evaluators. Empty or duplicate names and invalid
// requirement parameters are rejected.
func NewRegistry(clock Clock, defs ...Definition) (*Registry, error) {
	if clock == nil {
		return nil, errors.New("policy: clock is required")
	}
	r := &Registry{evaluators: make(map[Name]Evaluator, len(defs))}
	for _, def := range defs {
		if strings.TrimSpace(string(def.Name)) == "" {
			return nil, errors.New("policy: name is required")
		}
		if _, dup := r.evaluators[def.Name]; dup {
			return nil, fmt.Errorf("policy %q: registered twice", def.Name)
		}
		if len(def.Requirements) == 0 {
			return nil, fmt.Errorf("policy %q: at least one requirement is required", def.Name)
		}
		checks := make([]Evaluator, 0, len(def.Requirements))
		for _, req := range def.Requirements {
			check, err := compile(clock, req)
			if err != nil {
				return nil, fmt.Errorf("policy %q: %w", def.Name, err)
			}
			checks = append(checks, check)
		}
		r.evaluators[def.Name] = allOf(checks)
	}
	return r, nil
}

func compile(clock Clock, req Requirement) (Evaluator, error) {
	switch req := req.(type) {
	case ClaimPresence:
		if req.ClaimType == "" {
			return nil, errors.New("claim presence: claim type is required")
		}
		return func(claims domainauth.Claims) bool {
			return claims.Has(req.ClaimType)
		}, nil
	case MinimumTenure:
		if req.ClaimType == "" {
			return nil, errors.New("minimum tenure: claim type is required")
		}
		if req.Years < 0 {
			return nil, fmt.Errorf("minimum tenure: years must not be negative, got %d", req.Years)
		}
		return func(claims domainauth.Claims) bool {
			return meetsTenure(claims, req, clock.Now())
		}, nil
	default:
		return nil, fmt.Errorf("unsupported requirement %T", req)
	}
}

func allOf(checks []Evaluator) Evaluator {
	return func(claims domainauth.Claims) bool {
		for _, check := range checks {
			if !check(claims) {
				return false
			}
		}
		return true
	}
}

// Evaluate reports whether claims satisfy the named policy. Unknown names deny.
func (r *Registry) Evaluate(name Name, claims domainauth.Claims) bool {
	eval, ok := r.evaluators[name]
	if !ok {
		return false
	}
	return eval(claims)
}

// Has reports whether a policy is registered under name.
func (r *Registry) Has(name Name) bool {
	_, ok := r.evaluators[name]
	return ok
}

// Names lists registered policies in sorted order.
func (r *Registry) Names() []Name {
	out := make([]Name, 0, len(r.evaluators))
	for n := range r.evaluators {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
