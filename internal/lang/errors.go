package lang

import "errors"

// ErrInvalid indicates an unsupported output language code.
var ErrInvalid = errors.New("invalid language code")
