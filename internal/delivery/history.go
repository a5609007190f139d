package delivery

import (
	"context"

	"github.com/simplechat/chat-server/internal/data"
)

// MessagePager is the read side of the message store.
type MessagePager interface {
	Page(ctx context.Context, userA, userB, pageIndex int64) ([]*data.Message, error)
}

// History is the paginated read path for conversation history.
type History struct {
	pages MessagePager
}

// NewHistory returns a History backed by the given pager.
func NewHistory(pages MessagePager) *History {
	return &History{pages: pages}
}

// Fetch returns the pageIndex-th most-recent block of the conversation
// between userA and userB, oldest-first within the page. The requester must
// be one of the two participants, else ErrForbidden and no data leaks.
func (h *History) Fetch(ctx context.Context, requesterID, userA, userB, pageIndex int64) ([]*data.Message, error) {
	if requesterID != userA && requesterID != userB {
		return nil, ErrForbidden
	}
	return h.pages.Page(ctx, userA, userB, pageIndex)
}
