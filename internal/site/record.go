// Package site holds the per-site parameters read from the site list.
package site

import "strings"

// DefaultValue is substituted for contact fields left empty in the site list.
const DefaultValue = "N/A"

// Placeholder keys recognised inside template src files.
const (
	KeyPhone   = "phone"
	KeyAddress = "address"
	KeyEmail   = "email"
)

// Record is one row of the site list.
type Record struct {
	Domain  string
	Phone   string
	Address string
	Email   string
	Title   string

	// Line is the 1-based line in the input the record came from.
	Line int
}

// PageTitle returns the title for the entry file, falling back to the domain.
func (r Record) PageTitle() string {
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	return r.Domain
}

// Replacements returns the placeholder values for the template's src files.
func (r Record) Replacements() map[string]string {
	return map[string]string{
		KeyPhone:   orDefault(r.Phone),
		KeyAddress: orDefault(r.Address),
		KeyEmail:   orDefault(r.Email),
	}
}

func orDefault(v string) string {
	if strings.TrimSpace(v) == "" {
		return DefaultValue
	}
	return v
}
