package generation

import "errors"

// ErrInvalidConfig is returned when the orchestrator cannot be built from
// the supplied configuration.
var ErrInvalidConfig = errors.New("invalid generation configuration")
