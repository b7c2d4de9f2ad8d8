package model

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// DefaultDisclosure is shown alongside every quote unless a company supplies
// its own wording.
const DefaultDisclosure = "This is an estimate based on the information you provided. " +
	"Your actual rate, term and payment depend on the lender's final review."

// ---------------------------------------------------------------------------
// LoanCompany – reference data
// ---------------------------------------------------------------------------

// LoanCompany is a lender publishing rate tables.
type LoanCompany struct {
	ID         string
	Title      string
	Slug       string
	Email      string
	Disclosure string
	CreatedAt  time.Time
}

// NewLoanCompany creates a company with a slug derived from its title and the
// default disclosure.
func NewLoanCompany(title, email string, now time.Time) (LoanCompany, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return LoanCompany{}, errors.New("company title is required")
	}
	slug := Slugify(title)
	if slug == "" {
		return LoanCompany{}, errors.New("company title must contain letters or digits")
	}
	return LoanCompany{
		ID:         uuid.New().String(),
		Title:      title,
		Slug:       slug,
		Email:      strings.TrimSpace(email),
		Disclosure: DefaultDisclosure,
		CreatedAt:  now.UTC(),
	}, nil
}

// Slugify lowercases s and joins its runs of letters and digits with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// LoanType – reference data
// ---------------------------------------------------------------------------

// LoanType is a product line such as "Used vehicle". Names are unique.
type LoanType struct {
	ID   string
	Name string
}

// NewLoanType creates a loan type.
func NewLoanType(name string) (LoanType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return LoanType{}, errors.New("loan type name is required")
	}
	return LoanType{ID: uuid.New().String(), Name: name}, nil
}
