package diagnostic

import (
	"gitlab.com/tozd/go/errors"
)

// Error kinds. Test with errors.Is.
var (
	// ErrConfiguration marks malformed front-end input.
	ErrConfiguration = errors.New("configuration error")
	// ErrResolution marks a class, member or redirect set that cannot be found.
	ErrResolution = errors.New("resolution error")
	// ErrUnsupportedRedirect marks a redirect that would need an illegal
	// dispatch conversion.
	ErrUnsupportedRedirect = errors.New("unsupported redirect")
	// ErrInvariant marks a violated model invariant.
	ErrInvariant = errors.New("invariant violation")
)

// Configurationf returns an error of kind ErrConfiguration.
func Configurationf(format string, args ...any) error {
	return kindf(ErrConfiguration, format, args...)
}

// Resolutionf returns an error of kind ErrResolution.
func Resolutionf(format string, args ...any) error {
	return kindf(ErrResolution, format, args...)
}

// Unsupportedf returns an error of kind ErrUnsupportedRedirect.
func Unsupportedf(format string, args ...any) error {
	return kindf(ErrUnsupportedRedirect, format, args...)
}

// Invariantf returns an error of kind ErrInvariant.
func Invariantf(format string, args ...any) error {
	return kindf(ErrInvariant, format, args...)
}

func kindf(kind error, format string, args ...any) error {
	return errors.Errorf("%w: "+format, append([]any{kind}, args...)...)
}
