package chat

import "github.com/pkg/errors"

var (
	// ErrMissingCredential is returned by the send operations when no API
	// key has been configured. No state is mutated in that case.
	ErrMissingCredential = errors.New("no API key configured")

	// ErrBusy is returned when a send operation is invoked while another
	// one is still in flight. The manager allows at most one request at a
	// time.
	ErrBusy = errors.New("a request is already in flight")

	// ErrChatNotFound is returned when an operation references a chat ID
	// that is not part of the collection.
	ErrChatNotFound = errors.New("chat not found")
)
