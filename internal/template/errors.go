package template

import "errors"

// ErrUnknown indicates an invalid style name was specified.
var ErrUnknown = errors.New("unknown style")
