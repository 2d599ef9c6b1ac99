package service

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PasswordPolicy describes the complexity a new password must meet.
type PasswordPolicy struct {
	MinLength              int
	RequireDigit           bool
	RequireLower           bool
	RequireUpper           bool
	RequireNonAlphanumeric bool
}

// DefaultPasswordPolicy requires six characters including a digit, a lowercase letter,
// an uppercase letter and a symbol.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:              6,
		RequireDigit:           true,
		RequireLower:           true,
		RequireUpper:           true,
		RequireNonAlphanumeric: true,
	}
}

// Check returns one message per unmet rule, in a stable order. An empty result means the
// password is acceptable.
func (p PasswordPolicy) Check(pw string) []string {
	var digit, lower, upper, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}

	var problems []string
	if utf8.RuneCountInString(pw) < p.MinLength {
		problems = append(problems, "Passwords must be at least "+strconv.Itoa(p.MinLength)+" characters.")
	}
	if p.RequireNonAlphanumeric && !symbol {
		problems = append(problems, "Passwords must have at least one non alphanumeric character.")
	}
	if p.RequireDigit && !digit {
		problems = append(problems, "Passwords must have at least one digit ('0'-'9').")
	}
	if p.RequireLower && !lower {
		problems = append(problems, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if p.RequireUpper && !upper {
		problems = append(problems, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	return problems
}

// Message joins the unmet rules into one field error, or returns "".
func (p PasswordPolicy) Message(pw string) string {
	return strings.Join(p.Check(pw), " ")
}
