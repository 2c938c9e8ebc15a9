package dsorm

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Row is a column-name-to-value mapping representing one result row or
// one set of values to insert.
type Row map[string]any

// ColumnType names a declared column type. Each type maps to a SQLite
// storage class and a default Codec.
type ColumnType string

const (
	Text    ColumnType = "text"
	Integer ColumnType = "integer"
	Real    ColumnType = "real"
	Blob    ColumnType = "blob"
	Bool    ColumnType = "bool"
	Time    ColumnType = "time"
	JSON    ColumnType = "json"
)

// Codec converts values between their Go representation and the value
// handed to (or scanned from) the database driver. Codecs are resolved
// once at table declaration time; a Column may override its type's
// default codec.
type Codec interface {
	// StorageClass returns the SQLite storage class used in DDL.
	StorageClass() string
	// Encode converts a Go value into a driver-bindable value.
	Encode(v any) (any, error)
	// Decode converts a scanned driver value back into a Go value.
	Decode(v any) (any, error)
}

func codecFor(t ColumnType) (Codec, error) {
	switch t {
	case Text, "":
		return textCodec{}, nil
	case Integer:
		return intCodec{}, nil
	case Real:
		return realCodec{}, nil
	case Blob:
		return blobCodec{}, nil
	case Bool:
		return boolCodec{}, nil
	case Time:
		return timeCodec{}, nil
	case JSON:
		return jsonCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

type textCodec struct{}

func (textCodec) StorageClass() string { return "TEXT" }

func (textCodec) Encode(v any) (any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return nil, fmt.Errorf("cannot store %T in a text column", v)
	}
}

func (textCodec) Decode(v any) (any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return nil, fmt.Errorf("cannot decode %T as text", v)
	}
}

type intCodec struct{}

func (intCodec) StorageClass() string { return "INTEGER" }

func (intCodec) Encode(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows an integer column", n)
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows an integer column", n)
		}
		return int64(n), nil
	default:
		return nil, fmt.Errorf("cannot store %T in an integer column", v)
	}
}

func (intCodec) Decode(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return n, nil
	default:
		return nil, fmt.Errorf("cannot decode %T as integer", v)
	}
}

type realCodec struct{}

func (realCodec) StorageClass() string { return "REAL" }

func (realCodec) Encode(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("cannot store %T in a real column", v)
	}
}

func (realCodec) Decode(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return nil, fmt.Errorf("cannot decode %T as real", v)
	}
}

type blobCodec struct{}

func (blobCodec) StorageClass() string { return "BLOB" }

func (blobCodec) Encode(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("cannot store %T in a blob column", v)
	}
}

func (blobCodec) Decode(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("cannot decode %T as blob", v)
	}
}

// boolCodec stores booleans as INTEGER 0 or 1.
type boolCodec struct{}

func (boolCodec) StorageClass() string { return "INTEGER" }

func (boolCodec) Encode(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case int64:
		return b, nil
	default:
		return nil, fmt.Errorf("cannot store %T in a bool column", v)
	}
}

func (boolCodec) Decode(v any) (any, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return b != 0, nil
	case bool:
		return b, nil
	default:
		return nil, fmt.Errorf("cannot decode %T as bool", v)
	}
}

// timeCodec stores timestamps as INTEGER unix seconds. Decoded values
// are UTC.
type timeCodec struct{}

func (timeCodec) StorageClass() string { return "INTEGER" }

func (timeCodec) Encode(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Unix(), nil
	case int64:
		return t, nil
	default:
		return nil, fmt.Errorf("cannot store %T in a time column", v)
	}
}

func (timeCodec) Decode(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	default:
		return nil, fmt.Errorf("cannot decode %T as time", v)
	}
}

// jsonCodec stores arbitrary Go values as JSON text. This is the
// catch-all for maps, slices, and structs.
type jsonCodec struct{}

func (jsonCodec) StorageClass() string { return "TEXT" }

func (jsonCodec) Encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column value: %w", err)
	}
	return string(data), nil
}

func (jsonCodec) Decode(v any) (any, error) {
	var data []byte
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(s)
	case []byte:
		data = s
	default:
		return nil, fmt.Errorf("cannot decode %T as json", v)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json column value: %w", err)
	}
	return out, nil
}
