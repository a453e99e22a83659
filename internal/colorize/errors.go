package colorize

import "errors"

// ErrImage indicates the source image could not be opened or decoded.
var ErrImage = errors.New("colorize: image unreadable")
