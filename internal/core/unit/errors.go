package unit

import "errors"

var ErrNotRegistered = errors.New("capability not registered")
