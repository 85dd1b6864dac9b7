package market

import "github.com/ValentinKolb/kvmarket/lib/market/model"

// Error is the coded error returned by all marketplace operations.
// Match with errors.Is against the values below.
type Error = model.Error

var (
	ErrEmailExists        = model.ErrEmailExists
	ErrInvalidCredentials = model.ErrInvalidCredentials
	ErrNotFound           = model.ErrNotFound
	ErrEmptyUsername      = model.ErrEmptyUsername
	ErrForbidden          = model.ErrForbidden
	ErrNotAuthenticated   = model.ErrNotAuthenticated
	ErrOwnProduct         = model.ErrOwnProduct
	ErrInvalidInput       = model.ErrInvalidInput
	ErrWeakPassword       = model.ErrWeakPassword
)
