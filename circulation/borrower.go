package circulation

import "strings"

// Borrower is a registered library card holder.
// The card id is assigned by the storage layer and never reused;
// the SSN is unique and immutable once set.
type Borrower struct {
	CardID  int64
	SSN     string
	Name    string
	Address string
	Phone   string // optional, empty when not provided
}

// NewBorrower carries the caller-supplied fields for registering a borrower.
type NewBorrower struct {
	SSN     string
	Name    string
	Address string
	Phone   string
}

// Normalize trims all fields and returns the result.
func (n NewBorrower) Normalize() NewBorrower {
	return NewBorrower{
		SSN:     strings.TrimSpace(n.SSN),
		Name:    strings.TrimSpace(n.Name),
		Address: strings.TrimSpace(n.Address),
		Phone:   strings.TrimSpace(n.Phone),
	}
}

// Validate reports whether the required fields are present after trimming.
func (n NewBorrower) Validate() error {
	t := n.Normalize()
	if t.SSN == "" || t.Name == "" || t.Address == "" {
		return ErrMissingBorrowerFields
	}

	return nil
}
