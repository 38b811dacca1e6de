package domain

import "errors"

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotFound            = errors.New("tax_code_not_found")
	ErrInactive            = errors.New("tax_code_inactive")
	ErrInvalidTaxCode      = errors.New("invalid_tax_code")
	ErrInvalidTaxType      = errors.New("invalid_tax_type")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
)
