package outbox

import "errors"

var errPanicked = errors.New("side effect panicked")
