package domain

import (
	"strings"
	"time"
)

type (
	Lead struct {
		ID        string
		Name      string
		Email     string
		Phone     string
		City      *string
		State     *string
		Category  *string
		CreatedAt time.Time
	}

	LeadDraft struct {
		Name     string
		Email    string
		Phone    string
		City     string
		State    string
		Category string
	}
)

func (d LeadDraft) Validate() error {
	if d.Name == "" || d.Email == "" || d.Phone == "" {
		return ErrLeadRequiredFields
	}
	return nil
}

// OptionalString maps an empty or blank value to nil.
func OptionalString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
