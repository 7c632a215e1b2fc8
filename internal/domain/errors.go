package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrExpiredCredential  = errors.New("credential expired")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrRemoteCall         = errors.New("remote call failed")
	ErrLineNotFound       = errors.New("cart line not found")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrInvalidQuery       = errors.New("invalid catalog query")

	// ErrUnreadableValue marks a stored value that exists but cannot be decoded,
	// such as one sealed under a different key. Callers may treat it as absent.
	ErrUnreadableValue = errors.New("stored value is unreadable")
)

// RemoteError describes a failed call to the backend API. StatusCode is 0 when
// the request never produced a response.
type RemoteError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + ErrRemoteCall.Error()
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemoteCall }

// Unauthorized reports whether the backend rejected the credential, meaning the
// UI should prompt for a new login rather than a retry.
func (e *RemoteError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsUnauthorized unwraps err looking for a RemoteError rejected for authorization.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.Unauthorized()
}
