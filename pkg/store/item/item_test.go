package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        Kind
	}{
		{"image/png", KindImage},
		{"IMAGE/JPEG", KindImage},
		{"image/svg+xml", KindImage},
		{"application/pdf", KindPDF},
		{"application/pdf; charset=binary", KindPDF},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", KindOther},
		{"text/plain", KindOther},
		{"application/octet-stream", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyContentType(tt.contentType))
		})
	}
}

func TestParentRef(t *testing.T) {
	assert.Nil(t, ParentRef(""))
	assert.Nil(t, ParentRef("null"))
	assert.Nil(t, ParentRef("root"))
	assert.Nil(t, ParentRef("  "))

	p := ParentRef("abc")
	if assert.NotNil(t, p) {
		assert.Equal(t, "abc", *p)
	}
}

func TestInParent(t *testing.T) {
	a, b := "a", "b"
	it := &Item{ParentID: &a}

	assert.True(t, it.InParent(&a))
	assert.False(t, it.InParent(&b))
	assert.False(t, it.InParent(nil))
	assert.True(t, (&Item{}).InParent(nil))
}

func TestCloneIsDeep(t *testing.T) {
	p := "parent"
	orig := &Item{ID: "1", ParentID: &p}
	c := orig.Clone()

	*c.ParentID = "changed"
	assert.Equal(t, "parent", *orig.ParentID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		it      *Item
		wantErr bool
	}{
		{"folder", &Item{Name: "Reports", Kind: KindFolder, OwnerID: "u1"}, false},
		{"file", &Item{Name: "a.pdf", Kind: KindPDF, OwnerID: "u1", Locator: "k"}, false},
		{"file without locator", &Item{Name: "a.pdf", Kind: KindPDF, OwnerID: "u1"}, false},
		{"nil", nil, true},
		{"empty name", &Item{Name: " ", Kind: KindFolder, OwnerID: "u1"}, true},
		{"no owner", &Item{Name: "x", Kind: KindFolder}, true},
		{"bad kind", &Item{Name: "x", Kind: "doc", OwnerID: "u1"}, true},
		{"folder with object", &Item{Name: "x", Kind: KindFolder, OwnerID: "u1", ObjectKey: "k"}, true},
		{"owner with NUL", &Item{Name: "x", Kind: KindFolder, OwnerID: "a\x00b"}, true},
		{"parent with NUL", &Item{Name: "x", Kind: KindFolder, OwnerID: "u1", ParentID: strPtr("p\x00q")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.it)
			if tt.wantErr {
				assert.True(t, IsInvalidArgument(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreErrorHelpers(t *testing.T) {
	err := NewNotFoundError("42")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnavailable(err))
	assert.Equal(t, "item not found: 42", err.Error())

	assert.False(t, IsNotFound(nil))
	assert.Equal(t, "StorageUnavailable", ErrUnavailable.String())
}

func TestDanglingUnder(t *testing.T) {
	folder := &Item{ID: "f", Name: "F", Kind: KindFolder, OwnerID: "u1"}
	file := &Item{ID: "f", Name: "a.pdf", Kind: KindPDF, OwnerID: "u1"}
	foreign := &Item{ID: "f", Name: "F", Kind: KindFolder, OwnerID: "u2"}
	child := &Item{ID: "c", Name: "c", Kind: KindFolder, OwnerID: "u1", ParentID: strPtr("f")}

	assert.False(t, child.DanglingUnder(folder))
	assert.True(t, child.DanglingUnder(nil), "missing parent")
	assert.True(t, child.DanglingUnder(file), "parent is not a folder")
	assert.True(t, child.DanglingUnder(foreign), "parent belongs to another owner")
	assert.True(t, child.DanglingUnder(&Item{ID: "other", Kind: KindFolder, OwnerID: "u1"}), "record for another id")

	root := &Item{ID: "r", Name: "r", Kind: KindFolder, OwnerID: "u1"}
	assert.False(t, root.DanglingUnder(nil))
}

func strPtr(s string) *string { return &s }
