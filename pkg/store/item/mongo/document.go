package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// itemDocument is the stored shape of an item. Field names follow the
// driveitems collection used by earlier deployments, where ownerId is an
// ObjectID, so existing data can be read without migration.
type itemDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Type      string             `bson:"type"`
	ParentID  *string            `bson:"parentId"`
	OwnerID   ownerRef           `bson:"ownerId"`
	Size      int64              `bson:"size,omitempty"`
	MimeType  string             `bson:"mimeType,omitempty"`
	S3URL     string             `bson:"s3Url,omitempty"`
	ObjectKey string             `bson:"objectKey,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// ownerRef is an owner id that is stored as an ObjectID when it is one in
// canonical hex form and as a string otherwise. Both forms decode.
type ownerRef string

func (o ownerRef) objectID() (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(string(o))
	if err != nil || oid.Hex() != string(o) {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func (o ownerRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if oid, ok := o.objectID(); ok {
		return bson.MarshalValue(oid)
	}
	return bson.MarshalValue(string(o))
}

func (o *ownerRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		*o = ownerRef(raw.ObjectID().Hex())
	case bsontype.String:
		*o = ownerRef(raw.StringValue())
	default:
		return fmt.Errorf("ownerId has unsupported bson type %s", t)
	}
	return nil
}

// ownerFilter matches an owner in either stored form.
func ownerFilter(ownerID string) any {
	if oid, ok := ownerRef(ownerID).objectID(); ok {
		return bson.M{"$in": bson.A{oid, ownerID}}
	}
	return ownerID
}

// The collection stores documents as "doc".
const storedDocumentType = "doc"

func kindToType(k item.Kind) string {
	if k == item.KindDocument {
		return storedDocumentType
	}
	return string(k)
}

func typeToKind(t string) item.Kind {
	if t == storedDocumentType {
		return item.KindDocument
	}
	k := item.Kind(t)
	if !k.Valid() {
		return item.KindOther
	}
	return k
}

func toDocument(it *item.Item) *itemDocument {
	return &itemDocument{
		Name:      it.Name,
		Type:      kindToType(it.Kind),
		ParentID:  it.ParentID,
		OwnerID:   ownerRef(it.OwnerID),
		Size:      it.Size,
		MimeType:  it.ContentType,
		S3URL:     it.Locator,
		ObjectKey: it.ObjectKey,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func (d *itemDocument) toItem() *item.Item {
	return &item.Item{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Kind:        typeToKind(d.Type),
		ParentID:    d.ParentID,
		OwnerID:     string(d.OwnerID),
		Size:        d.Size,
		ContentType: d.MimeType,
		Locator:     d.S3URL,
		ObjectKey:   d.ObjectKey,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
