package domain

import "time"

type (
	Identity struct {
		Email string
		Admin bool
	}

	Session struct {
		Token     string
		Email     string
		Admin     bool
		ExpiresAt time.Time
	}

	CatalogStatus struct {
		Loading   bool
		Count     int
		LastError string
	}

	// CatalogView is a filtered read of one snapshot together with the
	// loading state it was taken in.
	CatalogView struct {
		Loading    bool
		Properties []Property
	}
)
