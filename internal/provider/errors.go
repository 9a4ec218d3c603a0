package provider

import (
	"errors"
	"fmt"
)

// Start-time permission failures, returned synchronously from Start.
var (
	ErrPermissionDenied     = errors.New("location permission denied")
	ErrPermissionRestricted = errors.New("location permission restricted")
)

// ErrorKind classifies asynchronous provider faults for consumers that
// need to branch without knowing platform-specific codes.
type ErrorKind int

const (
	// KindPlatformService covers transient platform faults: unknown
	// location, network failures, region monitoring setup problems.
	KindPlatformService ErrorKind = iota
	// KindAuthorizationChange marks a post-start authorization downgrade.
	KindAuthorizationChange
)

func (k ErrorKind) String() string {
	switch k {
	case KindPlatformService:
		return "platform_service"
	case KindAuthorizationChange:
		return "authorization_change"
	}
	return "unknown"
}

// Error wraps a platform fault with a stable kind and the underlying
// platform code. Never fatal: the controller keeps its mode and continues.
type Error struct {
	Kind ErrorKind
	Code int
}

func (e *Error) Error() string {
	return fmt.Sprintf("location provider: %s (platform code %d)", e.Kind, e.Code)
}

func newPlatformError(code int) *Error {
	return &Error{Kind: KindPlatformService, Code: code}
}
