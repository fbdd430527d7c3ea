package polyalloc

import "errors"

// ErrAllocationFailed is the sole error kind of this layer. It is reported
// whenever the wrapped allocator cannot satisfy a size/alignment request.
// Adapters and wrappers wrap it with %w so errors.Is keeps working through
// any amount of decoration.
var ErrAllocationFailed = errors.New("polyalloc: allocation failed")
