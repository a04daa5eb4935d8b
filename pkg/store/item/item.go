package item

import (
	"sort"
	"strings"
	"time"
)

// Kind classifies an item. Folders are containers; every other kind is a
// file backed by exactly one object in remote storage.
type Kind string

const (
	KindFolder   Kind = "folder"
	KindImage    Kind = "image"
	KindPDF      Kind = "pdf"
	KindDocument Kind = "document"
	KindOther    Kind = "other"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindFolder, KindImage, KindPDF, KindDocument, KindOther:
		return true
	}
	return false
}

// IsFile reports whether k denotes a file-kind item.
func (k Kind) IsFile() bool {
	return k.Valid() && k != KindFolder
}

// ClassifyContentType maps a MIME type to a file kind.
//
// Only three buckets exist: image/* is an image, application/pdf is a pdf
// and everything else is other. Parameters such as "; charset=binary" are
// ignored and matching is case insensitive.
func ClassifyContentType(contentType string) Kind {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))

	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return KindImage
	case mediaType == "application/pdf":
		return KindPDF
	default:
		return KindOther
	}
}

// Item is a folder or a file node in an owner's tree.
//
// ParentID is nil for root-level items. It is never validated against
// existing folders, so an item may reference a parent that no longer exists.
//
// Size, ContentType, Locator and ObjectKey are only meaningful for file-kind
// items. Locator is what the object gateway returned on upload (usually a
// URL). ObjectKey is the key the payload was stored under; when it is empty
// it is recovered from Locator.
type Item struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        Kind      `json:"kind"`
	ParentID    *string   `json:"parentId"`
	OwnerID     string    `json:"ownerId"`
	Size        int64     `json:"size,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	Locator     string    `json:"locator,omitempty"`
	ObjectKey   string    `json:"objectKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsFolder reports whether the item is a folder.
func (i *Item) IsFolder() bool {
	return i.Kind == KindFolder
}

// HasObject reports whether the item references a stored object.
func (i *Item) HasObject() bool {
	return i.Locator != "" || i.ObjectKey != ""
}

// AtRoot reports whether the item lives at the root of its owner's tree.
func (i *Item) AtRoot() bool {
	return i.ParentID == nil
}

// InParent reports whether the item's parent equals parentID (nil = root).
func (i *Item) InParent(parentID *string) bool {
	if i.ParentID == nil || parentID == nil {
		return i.ParentID == nil && parentID == nil
	}
	return *i.ParentID == *parentID
}

// DanglingUnder reports whether the item's parent reference fails to name
// one of its owner's folders. parent is the record the reference resolves
// to, nil when there is none. Root items are never dangling.
func (i *Item) DanglingUnder(parent *Item) bool {
	if i.ParentID == nil {
		return false
	}
	return parent == nil || parent.ID != *i.ParentID || !parent.IsFolder() || parent.OwnerID != i.OwnerID
}

// Clone returns a deep copy, so stores never hand out their internal state.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	c := *i
	if i.ParentID != nil {
		p := *i.ParentID
		c.ParentID = &p
	}
	return &c
}

// ParentCount is one row of the group-by-parent aggregate. A nil ParentID
// stands for the root.
type ParentCount struct {
	ParentID *string `json:"parentId"`
	Count    int64   `json:"count"`
}

// SortParentCounts orders rows root first, then by parent id.
func SortParentCounts(rows []ParentCount) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].ParentID, rows[j].ParentID
		if a == nil || b == nil {
			return a == nil && b != nil
		}
		return *a < *b
	})
}

// ParentRef converts a caller supplied parent identifier to the stored form.
// The empty string and the sentinels "null" and "root" all mean root.
func ParentRef(raw string) *string {
	switch strings.TrimSpace(raw) {
	case "", "null", "root":
		return nil
	}
	p := strings.TrimSpace(raw)
	return &p
}

// ValidateScope rejects owner and parent identifiers no store can key
// safely. NUL is reserved as an index separator.
func ValidateScope(ownerID string, parentID *string) error {
	if strings.ContainsRune(ownerID, 0) {
		return NewInvalidArgumentError("owner id contains NUL", "")
	}
	if parentID != nil && strings.ContainsRune(*parentID, 0) {
		return NewInvalidArgumentError("parent id contains NUL", "")
	}
	return nil
}

// Validate checks the structural rules every store enforces on write.
func Validate(i *Item) error {
	if i == nil {
		return NewInvalidArgumentError("item is nil", "")
	}
	if strings.TrimSpace(i.Name) == "" {
		return NewInvalidArgumentError("item name is empty", i.ID)
	}
	if i.OwnerID == "" {
		return NewInvalidArgumentError("item owner is empty", i.ID)
	}
	if !i.Kind.Valid() {
		return NewInvalidArgumentError("unknown item kind "+string(i.Kind), i.ID)
	}
	if i.ParentID != nil && *i.ParentID == "" {
		return NewInvalidArgumentError("parent id is empty, use nil for root", i.ID)
	}
	if err := ValidateScope(i.OwnerID, i.ParentID); err != nil {
		return err
	}
	if i.IsFolder() && (i.HasObject() || i.Size != 0 || i.ContentType != "") {
		return NewInvalidArgumentError("folders cannot carry object attributes", i.ID)
	}
	return nil
}
