package workflow

import (
	"encoding/json"
	"maps"
	"slices"
)

// MetadataRecord is a catalog entry describing a node type or a workflow.
// Name is lifted out of the stored document; every other field is kept in
// Attributes unchanged.
type MetadataRecord struct {
	ID         ID
	Name       string
	Attributes map[string]any
}

// RecordFromDocument builds a record from a decoded catalog document.
func RecordFromDocument(doc map[string]any) MetadataRecord {
	rec := MetadataRecord{
		ID:         IDFromValue(doc["_id"]),
		Attributes: make(map[string]any, len(doc)),
	}
	for k, v := range doc {
		switch k {
		case "_id":
		case "name":
			if s, ok := v.(string); ok {
				rec.Name = s
				continue
			}
			rec.Attributes[k] = v
		default:
			rec.Attributes[k] = v
		}
	}
	return rec
}

// Label returns Name when set, otherwise the record id.
func (r *MetadataRecord) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID.String()
}

// AttributeKeys returns the attribute names in sorted order.
func (r *MetadataRecord) AttributeKeys() []string {
	return slices.Sorted(maps.Keys(r.Attributes))
}

// MarshalJSON flattens the record back into a single document.
func (r MetadataRecord) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(r.Attributes)+2)
	maps.Copy(doc, r.Attributes)
	doc["_id"] = r.ID
	if r.Name != "" {
		doc["name"] = r.Name
	}
	return json.Marshal(doc)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *MetadataRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rec := MetadataRecord{Attributes: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "_id":
			if err := json.Unmarshal(v, &rec.ID); err != nil {
				return err
			}
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			if s, ok := val.(string); ok && k == "name" {
				rec.Name = s
				continue
			}
			rec.Attributes[k] = val
		}
	}
	*r = rec
	return nil
}
