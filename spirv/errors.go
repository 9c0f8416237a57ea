package spirv

import (
	"errors"
	"fmt"
)

// Error categories. Every fatal producer condition wraps one of these, so
// the driver can abort with a classified diagnostic. There is no recovery
// path: all of them indicate either a bug in an earlier pass or input the
// back-end was never meant to receive.
var (
	// ErrUnknownMapping is an IR type or value missing from its table.
	ErrUnknownMapping = errors.New("unknown mapping")
	// ErrUnsupported is an IR form the back-end does not translate
	// (switch, indirect branch, pointer equality, cmpxchg, fence).
	ErrUnsupported = errors.New("unsupported IR")
	// ErrStructural is a control-flow or layout invariant violation
	// (multi-exit loop, disagreeing workgroup sizes, oversized constants).
	ErrStructural = errors.New("structural violation")
	// ErrMissingDependency is a required external input that was not
	// provided (literal sampler without a sampler map).
	ErrMissingDependency = errors.New("missing dependency")
)

func unknownf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnknownMapping, fmt.Sprintf(format, args...))
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

func structuralf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrStructural, fmt.Sprintf(format, args...))
}

func missingf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingDependency, fmt.Sprintf(format, args...))
}
