package ledger

import "errors"

var (
	ErrUnauthorized    = errors.New("Caller is not authorized")
	ErrNotFound        = errors.New("Certificate not found")
	ErrInvalidArgument = errors.New("Invalid certificate data")
	ErrAlreadyApproved = errors.New("Certificate already approved")
	ErrAlreadyRevoked  = errors.New("Certificate already revoked")
	ErrRevoked         = errors.New("Certificate is revoked")
)
