package model

import (
	"regexp"
	"strings"
	"time"
)

// Customer is a person who rents equipment.
type Customer struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Phone             string     `json:"phone,omitempty"`
	Email             string     `json:"email,omitempty"`
	Passport          string     `json:"passport,omitempty"`
	Address           string     `json:"address,omitempty"`
	PassportIssueDate *time.Time `json:"passport_issue_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

var (
	phonePattern    = regexp.MustCompile(`^\+7\s?\(?\d{3}\)?\s?\d{3}-?\d{2}-?\d{2}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	passportPattern = regexp.MustCompile(`^\d{4}\s?\d{6}$`)
)

// Validate checks the record and reports every problem found. Optional
// fields are only checked when set.
func (c *Customer) Validate() error {
	var v validation
	v.check(strings.TrimSpace(c.Name) != "", "name is required")
	if c.Phone != "" {
		v.check(phonePattern.MatchString(c.Phone), "phone must look like +7 (999) 123-45-67")
	}
	if c.Email != "" {
		v.check(emailPattern.MatchString(c.Email), "email is malformed")
	}
	if c.Passport != "" {
		v.check(passportPattern.MatchString(c.Passport), "passport must be 4 digits and 6 digits")
	}
	return v.err()
}
