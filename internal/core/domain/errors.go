package domain

import "errors"

var (
	ErrAccessDenied       = errors.New("access denied: admin only")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrImageRequired      = errors.New("main image is required")
	ErrInvalidProperty    = errors.New("invalid property")
	ErrDocumentTooLarge   = errors.New("document exceeds the maximum size")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrLeadRequiredFields = errors.New("required fields: name, email and phone")
)
