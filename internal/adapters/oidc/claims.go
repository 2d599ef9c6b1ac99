package oidc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/staff-portal/internal/domain/auth"
)

// ClaimMapper derives principal claims from raw ID token claims using JMESPath expressions.
// Expressions are compiled once at construction.
type ClaimMapper struct {
	exprs []compiledClaim
}

type compiledClaim struct {
	claimType string
	expr      jmespath.JMESPath
}

// NewClaimMapper compiles one expression per claim type. An invalid expression is an error.
func NewClaimMapper(spec map[string]string) (*ClaimMapper, error) {
	types := make([]string, 0, len(spec))
	for k := range spec {
		types = append(types, k)
	}
	sort.Strings(types)

	m := &ClaimMapper{}
	for _, claimType := range types {
		src := strings.TrimSpace(spec[claimType])
		claimType = strings.TrimSpace(claimType)
		if claimType == "" || src == "" {
			continue
		}
		expr, err := jmespath.Compile(src)
		if err != nil {
			return nil, fmt.Errorf("claim %s: compile %q: %w", claimType, src, err)
		}
		m.exprs = append(m.exprs, compiledClaim{claimType: claimType, expr: expr})
	}
	return m, nil
}

// Map evaluates every expression against raw. Expressions that fail, or yield null,
// false or an empty value, leave their claim unset.
func (m *ClaimMapper) Map(raw map[string]any) domainauth.Claims {
	out := domainauth.Claims{}
	if m == nil {
		return out
	}
	for _, c := range m.exprs {
		v, err := c.expr.Search(raw)
		if err != nil {
			continue
		}
		if s, ok := claimString(v); ok {
			out[c.claimType] = s
		}
	}
	return out
}

func claimString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		return "true", t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := claimString(e); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	default:
		s := fmt.Sprint(t)
		return s, s != ""
	}
}
