package models

// Document is one record of the document store. Domain fields are opaque;
// the store adds its own metadata keys next to them.
type Document map[string]any

const (
	KeyID           = "$id"
	KeyCreatedAt    = "$createdAt"
	KeyUpdatedAt    = "$updatedAt"
	KeyPermissions  = "$permissions"
	KeyCollectionID = "$collectionId"
	KeyDatabaseID   = "$databaseId"
	KeySequence     = "$sequence"
)

// MetadataKeys lists the store-assigned keys that must never be sent back on a write.
var MetadataKeys = []string{
	KeyID,
	KeyCreatedAt,
	KeyUpdatedAt,
	KeyPermissions,
	KeyCollectionID,
	KeyDatabaseID,
	KeySequence,
}

var metadataSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(MetadataKeys))
	for _, k := range MetadataKeys {
		set[k] = struct{}{}
	}
	return set
}()

func IsMetadataKey(key string) bool {
	_, ok := metadataSet[key]
	return ok
}

// ID returns the store id of the document, or "" when it has none.
func (d Document) ID() string {
	if d == nil {
		return ""
	}
	id, _ := d[KeyID].(string)
	return id
}

// Clean returns a shallow copy of the document without store metadata.
func (d Document) Clean() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if IsMetadataKey(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Copy returns a shallow copy of the document.
func (d Document) Copy() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
