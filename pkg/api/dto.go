package api

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// maxNameLength caps folder and file names.
const maxNameLength = 255

// CreateFolderRequest is the request body for POST /api/drive/folder.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	OwnerID  string `json:"ownerId"`
	ParentID string `json:"parentId"`
}

// Validate checks required fields.
func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OwnerID, validation.Required),
		validation.Field(&r.Name,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, maxNameLength),
		),
	)
}

// UpdateItemRequest is the request body for PATCH /api/drive/{id}.
//
// Name renames the item. ParentID moves it; "", "null" and "root" move it
// to the root. Both may be given, in which case the rename happens first.
type UpdateItemRequest struct {
	Name     *string `json:"name"`
	ParentID *string `json:"parentId"`
}

// Validate requires at least one change.
func (r UpdateItemRequest) Validate() error {
	if r.Name == nil && r.ParentID == nil {
		return validation.NewError("validation_empty_update", "name or parentId is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.NilOrNotEmpty,
			validation.By(notBlank),
			validation.RuneLength(1, maxNameLength),
		),
	)
}

// UploadForm holds the non-file fields of an upload.
type UploadForm struct {
	OwnerID  string
	ParentID string
}

// Validate checks required fields.
func (f UploadForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.OwnerID, validation.Required),
	)
}

// DeleteResponse is returned by DELETE /api/drive/{id}.
type DeleteResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`

	// Warning is set when the record was deleted but its object could not
	// be removed
	Warning string `json:"warning,omitempty"`
}

func notBlank(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v == nil {
			return nil
		}
		s = *v
	default:
		return nil
	}
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "must not be blank")
	}
	return nil
}
