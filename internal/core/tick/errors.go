package tick

import "errors"

var ErrInvalidTickRate = errors.New("tick rate must be between 20 and 200")
