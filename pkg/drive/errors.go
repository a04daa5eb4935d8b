package drive

import (
	"context"
	"errors"

	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// ErrorKind classifies errors returned by Service for callers that need to
// map them onto another protocol, such as HTTP status codes.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNotFound
	KindInvalidState
	KindStorageUnavailable
	KindDuplicateKey
	KindInvalidArgument
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindNotFound:
		return "NotFound"
	case KindInvalidState:
		return "InvalidState"
	case KindStorageUnavailable:
		return "StorageUnavailable"
	case KindDuplicateKey:
		return "DuplicateKey"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "Internal"
	}
}

// KindOf classifies err. Errors are surfaced untransformed by Service, so
// the classification looks through wrapping on both store error families.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	if code, ok := item.CodeOf(err); ok {
		switch code {
		case item.ErrNotFound:
			return KindNotFound
		case item.ErrInvalidState:
			return KindInvalidState
		case item.ErrUnavailable:
			return KindStorageUnavailable
		case item.ErrDuplicateKey:
			return KindDuplicateKey
		case item.ErrInvalidArgument:
			return KindInvalidArgument
		}
	}

	switch {
	case errors.Is(err, object.ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, object.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return KindStorageUnavailable
	case errors.Is(err, object.ErrInvalidKey):
		return KindInvalidArgument
	default:
		return KindInternal
	}
}
