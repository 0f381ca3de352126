// Package validate collects field-level input problems for request bodies.
// Handlers report the first problem generically; the full list is kept for
// logs.
package validate

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Shared input patterns.
var (
	DatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	DOBPattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	// Israeli mobile number in E.164.
	PhonePattern = regexp.MustCompile(`^\+9725[0-9]{8}$`)
	OTPPattern   = regexp.MustCompile(`^\d{6}$`)
)

// MaxEmailLength is the longest accepted email address.
const MaxEmailLength = 254

// Error lists every problem found in one input.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// Problems returns the problems carried by err, or nil.
func Problems(err error) []string {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Problems
	}
	return nil
}

// Checker accumulates problems. The zero value is ready to use.
type Checker struct {
	problems []string
}

func (c *Checker) Fail(field, format string, args ...any) {
	c.problems = append(c.problems, field+": "+fmt.Sprintf(format, args...))
}

// Len checks that v has between min and max characters.
func (c *Checker) Len(field, v string, min, max int) {
	n := utf8.RuneCountInString(v)
	switch {
	case n < min && min == 1:
		c.Fail(field, "is required")
	case n < min:
		c.Fail(field, "must be at least %d characters", min)
	case max > 0 && n > max:
		c.Fail(field, "must be at most %d characters", max)
	}
}

func (c *Checker) Match(field, v string, re *regexp.Regexp, msg string) {
	if !re.MatchString(v) {
		c.Fail(field, "%s", msg)
	}
}

// Email checks for a bare address (no display name) of at most
// MaxEmailLength characters.
func (c *Checker) Email(field, v string) {
	if len(v) > MaxEmailLength {
		c.Fail(field, "must be at most %d characters", MaxEmailLength)
		return
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		c.Fail(field, "invalid email address")
		return
	}
	if _, domain, _ := strings.Cut(v, "@"); !strings.Contains(domain, ".") {
		c.Fail(field, "invalid email address")
	}
}

func (c *Checker) OneOf(field, v string, allowed ...string) {
	for _, a := range allowed {
		if v == a {
			return
		}
	}
	c.Fail(field, "must be one of %s", strings.Join(allowed, ", "))
}

// Range checks lo <= v <= hi, or lo < v when exclusiveLo is set.
func (c *Checker) Range(field string, v, lo, hi float64, exclusiveLo bool) {
	if exclusiveLo && v <= lo {
		c.Fail(field, "must be greater than %g", lo)
		return
	}
	if v < lo {
		c.Fail(field, "must be at least %g", lo)
		return
	}
	if v > hi {
		c.Fail(field, "must be at most %g", hi)
	}
}

func (c *Checker) OK() bool { return len(c.problems) == 0 }

// Err returns nil when no problem was recorded.
func (c *Checker) Err() error {
	if len(c.problems) == 0 {
		return nil
	}
	return &Error{Problems: append([]string(nil), c.problems...)}
}
