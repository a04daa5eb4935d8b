package badger

import (
	"encoding/json"
	"fmt"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// itemData is the persisted form of an item. The id lives in the key, not
// in the value.
type itemData struct {
	Name        string    `json:"name"`
	Kind        item.Kind `json:"kind"`
	ParentID    *string   `json:"parent_id,omitempty"`
	OwnerID     string    `json:"owner_id"`
	Size        int64     `json:"size,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Locator     string    `json:"locator,omitempty"`
	ObjectKey   string    `json:"object_key,omitempty"`
	CreatedAt   int64     `json:"created_at"`
	UpdatedAt   int64     `json:"updated_at"`
}

func encodeItem(it *item.Item) ([]byte, error) {
	data := itemData{
		Name:        it.Name,
		Kind:        it.Kind,
		ParentID:    it.ParentID,
		OwnerID:     it.OwnerID,
		Size:        it.Size,
		ContentType: it.ContentType,
		Locator:     it.Locator,
		ObjectKey:   it.ObjectKey,
		CreatedAt:   it.CreatedAt.UnixNano(),
		UpdatedAt:   it.UpdatedAt.UnixNano(),
	}
	bytes, err := json.Marshal(&data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode item: %w", err)
	}
	return bytes, nil
}

func decodeItem(id string, bytes []byte) (*item.Item, error) {
	var data itemData
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", id, err)
	}
	return &item.Item{
		ID:          id,
		Name:        data.Name,
		Kind:        data.Kind,
		ParentID:    data.ParentID,
		OwnerID:     data.OwnerID,
		Size:        data.Size,
		ContentType: data.ContentType,
		Locator:     data.Locator,
		ObjectKey:   data.ObjectKey,
		CreatedAt:   unixNano(data.CreatedAt),
		UpdatedAt:   unixNano(data.UpdatedAt),
	}, nil
}
