// Package validation checks contact form values before they are sent.
package validation

import (
	"regexp"
	"strings"

	"github.com/performartech/hinis-website/internal/domain"
)

// Rule names a validation rule.
type Rule string

// Rules in evaluation order.
const (
	RuleRequired Rule = "required"
	RuleEmail    Rule = "email"
	RulePhone    Rule = "phone"
)

// MinPhoneDigits is the shortest accepted phone number, area code included.
const MinPhoneDigits = 10

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Error reports the first rule a form failed.
type Error struct {
	Rule Rule
}

func (e *Error) Error() string {
	return "validation failed: " + string(e.Rule)
}

// RequiredFieldsPresent reports whether nome, email, telefone and programa
// are non-empty after trimming.
func RequiredFieldsPresent(v domain.FormValues) bool {
	for _, s := range []string{v.Nome, v.Email, v.Telefone, v.Programa} {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

// IsValidEmail applies the address pattern plus three extra checks: no
// consecutive dots, no dot at either end of the local part and a dot in the
// domain.
func IsValidEmail(email string) bool {
	if !emailPattern.MatchString(email) {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	local, domainPart, _ := strings.Cut(email, "@")
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return false
	}
	return strings.Contains(domainPart, ".")
}

// IsValidPhone reports whether phone holds at least MinPhoneDigits ASCII
// digits once everything else is stripped.
func IsValidPhone(phone string) bool {
	digits := 0
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits++
		}
	}
	return digits >= MinPhoneDigits
}

// Validate runs the rules in order and returns an *Error for the first one
// that fails.
func Validate(v domain.FormValues) error {
	if !RequiredFieldsPresent(v) {
		return &Error{Rule: RuleRequired}
	}
	if !IsValidEmail(strings.TrimSpace(v.Email)) {
		return &Error{Rule: RuleEmail}
	}
	if !IsValidPhone(v.Telefone) {
		return &Error{Rule: RulePhone}
	}
	return nil
}
