package drive

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// ViewLink is a signed, time-limited read grant for one object.
type ViewLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssueViewLink returns a fresh signed link for a file's object. Every call
// issues a new, independent grant.
//
// Returns NotFound when the item is absent and InvalidState when it has no
// object (folders) or its locator cannot be parsed.
func (s *Service) IssueViewLink(ctx context.Context, id string) (link *ViewLink, err error) {
	start := time.Now()
	defer func() { s.observe("view_link", start, err) }()

	it, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if it.IsFolder() || !it.HasObject() {
		return nil, item.NewInvalidStateError("item has no stored object", it.ID)
	}

	key, err := s.objectKeyOf(it)
	if err != nil {
		return nil, &item.StoreError{
			Code:    item.ErrInvalidState,
			Message: fmt.Sprintf("invalid object locator %q", it.Locator),
			ID:      it.ID,
			Err:     err,
		}
	}

	issuedAt := s.clock()

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	url, err := s.objects.SignView(opCtx, key, s.cfg.ViewLinkTTL)
	if err != nil {
		return nil, err
	}

	return &ViewLink{URL: url, ExpiresAt: issuedAt.Add(s.cfg.ViewLinkTTL)}, nil
}
