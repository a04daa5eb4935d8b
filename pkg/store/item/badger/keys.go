package badger

// Key layout
//
//	i:<id>                         -> JSON encoded item record
//	c:<owner>\x00<parent>\x00<id>  -> empty (children index, parent "" is root)
//
// Owner and parent identifiers are opaque strings that may contain ':' but
// never NUL (item.ValidateScope), so the children index uses NUL as
// separator. Prefix scans over "c:<owner>\x00"
// enumerate one owner; "c:<owner>\x00<parent>\x00" enumerates one folder.
const (
	prefixItem  = "i:"
	prefixChild = "c:"

	sep = "\x00"
)

func keyItem(id string) []byte {
	return []byte(prefixItem + id)
}

func parentSegment(parentID *string) string {
	if parentID == nil {
		return ""
	}
	return *parentID
}

func keyChild(ownerID string, parentID *string, id string) []byte {
	return []byte(prefixChild + ownerID + sep + parentSegment(parentID) + sep + id)
}

func keyChildPrefix(ownerID string, parentID *string) []byte {
	return []byte(prefixChild + ownerID + sep + parentSegment(parentID) + sep)
}

func keyOwnerPrefix(ownerID string) []byte {
	return []byte(prefixChild + ownerID + sep)
}

// idFromChildKey returns the trailing item id of a children index key.
func idFromChildKey(key []byte) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == 0 {
			return string(key[i+1:])
		}
	}
	return ""
}
