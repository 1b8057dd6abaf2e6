package company

import "errors"

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrCompanyMismatch = errors.New("resource does not belong to this company")
)
