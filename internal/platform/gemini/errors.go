package gemini

import "errors"

// ErrInvalidConfig is returned when the client cannot be constructed from
// the supplied configuration.
var ErrInvalidConfig = errors.New("invalid gemini configuration")
