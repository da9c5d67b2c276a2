package deploy

import "errors"

var (
	ErrMissingClient  = errors.New("missing client")
	ErrMissingSetting = errors.New("missing setting")
)
