// Package delivery routes messages from a sender's publish to the
// recipient's live session and serves conversation history.
package delivery

import "errors"

var (
	// ErrInvalidRecipient covers self-sends and unknown targets. Nothing
	// is persisted when it is returned.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrStoreUnavailable means the send was aborted before anything was
	// persisted or pushed; the caller may retry.
	ErrStoreUnavailable = errors.New("message store unavailable")

	// ErrForbidden is returned for a history read by a non-participant.
	ErrForbidden = errors.New("not a conversation participant")
)
