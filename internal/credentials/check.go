// Package credentials checks passwords against the account requirements.
package credentials

import (
	"unicode"
	"unicode/utf8"
)

// MinLength is the shortest acceptable password, in characters.
const MinLength = 8

// Requirement is one rule a password must satisfy.
type Requirement struct {
	Label string
	Met   bool
}

// Result reports each requirement in display order.
type Result struct {
	Requirements []Requirement
	Valid        bool
}

// Check evaluates pw against every requirement. It has no side effects.
func Check(pw string) Result {
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	reqs := []Requirement{
		{Label: "At least 8 characters", Met: utf8.RuneCountInString(pw) >= MinLength},
		{Label: "One uppercase letter", Met: upper},
		{Label: "One lowercase letter", Met: lower},
		{Label: "One number", Met: digit},
	}

	valid := true
	for _, r := range reqs {
		valid = valid && r.Met
	}
	return Result{Requirements: reqs, Valid: valid}
}

// Unmet returns the labels of the requirements pw fails.
func (r Result) Unmet() []string {
	var out []string
	for _, req := range r.Requirements {
		if !req.Met {
			out = append(out, req.Label)
		}
	}
	return out
}
