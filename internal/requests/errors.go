package requests

import "errors"

var (
	ErrNotFound        = errors.New("Request not found")
	ErrInvalidArgument = errors.New("Missing required fields")
	ErrInvalidState    = errors.New("Request already decided")
)
