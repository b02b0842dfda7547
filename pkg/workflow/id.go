package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the canonical identity of a workflow, node, edge, or metadata record.
//
// Stored documents use heterogeneous identifier types (strings, integers,
// ObjectIDs). ID is always their string form: strings verbatim, integers in
// base 10, ObjectIDs as 24-character lowercase hex. Every lookup in flowlens
// (node index, edge endpoints, metadata keys, workflow list) compares IDs,
// never raw stored values.
type ID string

// String returns the ID as a plain string.
func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is empty.
func (id ID) IsZero() bool { return id == "" }

// IDFromValue converts a decoded document value into its canonical ID.
// Unsupported types fall back to their fmt representation.
func IDFromValue(v any) ID {
	switch x := v.(type) {
	case nil:
		return ""
	case ID:
		return x
	case string:
		return ID(x)
	case int:
		return ID(strconv.Itoa(x))
	case int32:
		return ID(strconv.FormatInt(int64(x), 10))
	case int64:
		return ID(strconv.FormatInt(x, 10))
	case float64:
		return ID(formatFloat(x))
	case json.Number:
		return idFromNumber(x)
	case primitive.ObjectID:
		return ID(x.Hex())
	case fmt.Stringer:
		return ID(x.String())
	default:
		return ID(fmt.Sprint(x))
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func idFromNumber(n json.Number) ID {
	if i, err := n.Int64(); err == nil {
		return ID(strconv.FormatInt(i, 10))
	}
	if f, err := n.Float64(); err == nil {
		return ID(formatFloat(f))
	}
	return ID(n.String())
}

// UnmarshalBSONValue decodes string, integer, double, and ObjectID values.
func (id *ID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*id = ""
	case bsontype.String:
		s, ok := rv.StringValueOK()
		if !ok {
			return fmt.Errorf("decode id: malformed string")
		}
		*id = ID(s)
	case bsontype.Int32:
		i, ok := rv.Int32OK()
		if !ok {
			return fmt.Errorf("decode id: malformed int32")
		}
		*id = IDFromValue(i)
	case bsontype.Int64:
		i, ok := rv.Int64OK()
		if !ok {
			return fmt.Errorf("decode id: malformed int64")
		}
		*id = IDFromValue(i)
	case bsontype.Double:
		f, ok := rv.DoubleOK()
		if !ok {
			return fmt.Errorf("decode id: malformed double")
		}
		*id = IDFromValue(f)
	case bsontype.ObjectID:
		oid, ok := rv.ObjectIDOK()
		if !ok {
			return fmt.Errorf("decode id: malformed objectid")
		}
		*id = IDFromValue(oid)
	default:
		return fmt.Errorf("decode id: unsupported BSON type %s", t)
	}
	return nil
}

// UnmarshalJSON accepts strings, numbers, null, and the extended-JSON forms
// {"$oid": ...}, {"$numberInt": ...}, {"$numberLong": ...}.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	case '{':
		var ext struct {
			OID  string `json:"$oid"`
			Int  string `json:"$numberInt"`
			Long string `json:"$numberLong"`
		}
		if err := json.Unmarshal(data, &ext); err != nil {
			return err
		}
		switch {
		case ext.OID != "":
			*id = ID(ext.OID)
		case ext.Int != "":
			*id = idFromNumber(json.Number(ext.Int))
		case ext.Long != "":
			*id = idFromNumber(json.Number(ext.Long))
		default:
			return fmt.Errorf("decode id: unsupported object %s", data)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var n json.Number
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = idFromNumber(n)
	}
	return nil
}
