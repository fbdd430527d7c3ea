// Package alloctest provides stub allocators for exercising Allocator
// implementations and erased handles in tests.
//
//   - Bump: deterministic fixed-buffer bump allocator that records every
//     capability call
//   - Failing: denies every request above a size threshold
//   - Recorder: forwards to an inner allocator, recording the call log
//
// None of the stubs are concurrency-safe; they are intended for
// single-goroutine test bodies and deliberately do not carry the
// thread-safety markers.
package alloctest
