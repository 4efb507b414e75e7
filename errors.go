package modcore

import "errors"

// ErrTruncatedModule is returned by Load when songBytes is shorter than
// the layout it claims to have requires.
var ErrTruncatedModule = errors.New("modcore: truncated module")
