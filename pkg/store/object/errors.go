package object

import "errors"

var (
	// ErrObjectNotFound indicates no object is stored under the key.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnavailable indicates the object store could not be reached or
	// rejected the credentials.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrInvalidKey indicates a malformed key or locator.
	ErrInvalidKey = errors.New("invalid object key")

	// ErrLinkExpired indicates a signed link was used after its TTL.
	ErrLinkExpired = errors.New("signed link expired")

	// ErrLinkInvalid indicates a signed link failed verification.
	ErrLinkInvalid = errors.New("signed link invalid")
)
