package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// IntegerType converts to int64.
type IntegerType struct{ name string }

func (t IntegerType) Name() string { return t.name }

func (t IntegerType) ToDatabase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToInt64E(v)
}

func (t IntegerType) ToGo(v any) (any, error) { return t.ToDatabase(v) }

// FloatType converts to float64.
type FloatType struct{ name string }

func (t FloatType) Name() string { return t.name }

func (t FloatType) ToDatabase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToFloat64E(v)
}

func (t FloatType) ToGo(v any) (any, error) { return t.ToDatabase(v) }

// DecimalType keeps decimals as strings so no precision is lost.
type DecimalType struct{}

func (DecimalType) Name() string { return "decimal" }

func (DecimalType) ToDatabase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case float32, float64:
		return fmt.Sprintf("%v", x), nil
	}
	return cast.ToStringE(v)
}

func (t DecimalType) ToGo(v any) (any, error) { return t.ToDatabase(v) }

// StringType converts to string.
type StringType struct{ name string }

func (t StringType) Name() string { return t.name }

func (t StringType) ToDatabase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return cast.ToStringE(v)
}

func (t StringType) ToGo(v any) (any, error) { return t.ToDatabase(v) }

// BoolType converts to bool.
type BoolType struct{}

func (BoolType) Name() string { return "boolean" }

func (BoolType) ToDatabase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return cast.ToBoolE(v)
}

func (t BoolType) ToGo(v any) (any, error) { return t.ToDatabase(v) }

// DateType writes dates as "2006-01-02" and reads them back as Date.
type DateType struct{}

func (DateType) Name() string { return "date" }

func (DateType) ToDatabase(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Date:
		return x.String(), nil
	}
	tm, err := cast.ToTimeE(v)
	if err != nil {
		return nil, err
	}
	return tm.Format(DateLayout), nil
}

func (DateType) ToGo(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Date:
		return x, nil
	}
	tm, err := cast.ToTimeE(v)
	if err != nil {
		return nil, err
	}
	return DateOf(tm), nil
}

// DateTimeType converts to time.Time.
type DateTimeType struct{ name string }

func (t DateTimeType) Name() string { return t.name }

func (t DateTimeType) ToDatabase(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Date:
		return x.Time, nil
	}
	return cast.ToTimeE(v)
}

func (t DateTimeType) ToGo(v any) (any, error) { return t.ToDatabase(v) }

// TimeType writes times of day as "15:04:05".
type TimeType struct{}

func (TimeType) Name() string { return "time" }

func (TimeType) ToDatabase(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if _, err := time.Parse(TimeLayout, x); err != nil {
			return nil, err
		}
		return x, nil
	}
	tm, err := cast.ToTimeE(v)
	if err != nil {
		return nil, err
	}
	return tm.Format(TimeLayout), nil
}

func (t TimeType) ToGo(v any) (any, error) {
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	return t.ToDatabase(v)
}

// UUIDType normalizes UUIDs to their canonical string form.
type UUIDType struct{}

func (UUIDType) Name() string { return "uuid" }

func (UUIDType) ToDatabase(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return x.String(), nil
	case []byte:
		if len(x) == 16 {
			id, err := uuid.FromBytes(x)
			if err != nil {
				return nil, err
			}
			return id.String(), nil
		}
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return id.String(), nil
}

func (t UUIDType) ToGo(v any) (any, error) {
	s, err := t.ToDatabase(v)
	if err != nil || s == nil {
		return nil, err
	}
	return uuid.Parse(s.(string))
}

// JSONType stores values as JSON text.
type JSONType struct{}

func (JSONType) Name() string { return "json" }

func (JSONType) ToDatabase(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (JSONType) ToGo(v any) (any, error) {
	var raw []byte
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(x)
	case []byte:
		raw = x
	default:
		return nil, fmt.Errorf("unable to decode %T as json", v)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// BinaryType passes byte slices through and converts strings to bytes.
type BinaryType struct{}

func (BinaryType) Name() string { return "binary" }

func (BinaryType) ToDatabase(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	}
	return nil, fmt.Errorf("unable to cast %T to binary", v)
}

func (t BinaryType) ToGo(v any) (any, error) { return t.ToDatabase(v) }
