package crud

import (
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// convertValue converts a driver value to target, the base type of a field
func convertValue(raw interface{}, target reflect.Type) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}

	rt := reflect.TypeOf(raw)
	if rt == target {
		return raw, nil
	}
	if rt.AssignableTo(target) {
		return reflect.ValueOf(raw).Convert(target).Interface(), nil
	}

	// Scanner types such as uuid.UUID and sql.NullString decode themselves
	if reflect.PointerTo(target).Implements(scannerType) {
		ptr := reflect.New(target)
		if err := ptr.Interface().(sql.Scanner).Scan(raw); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	}

	var (
		converted interface{}
		err       error
	)
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		converted, err = cast.ToInt64E(raw)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		converted, err = cast.ToUint64E(raw)
	case reflect.Float32, reflect.Float64:
		converted, err = cast.ToFloat64E(raw)
	case reflect.Bool:
		converted, err = cast.ToBoolE(raw)
	case reflect.String:
		if b, ok := raw.([]byte); ok {
			converted = string(b)
		} else {
			converted, err = cast.ToStringE(raw)
		}
	case reflect.Struct:
		if target != timeType {
			return nil, fmt.Errorf("cannot convert %T to %s", raw, target)
		}
		converted, err = cast.ToTimeE(raw)
	default:
		return nil, fmt.Errorf("cannot convert %T to %s", raw, target)
	}
	if err != nil {
		return nil, err
	}

	v := reflect.ValueOf(converted)
	if overflows(v, target) {
		return nil, fmt.Errorf("value %v overflows %s", converted, target)
	}
	return v.Convert(target).Interface(), nil
}

// overflows reports whether the int64, uint64 or float64 v is out of range for target
func overflows(v reflect.Value, target reflect.Type) bool {
	zero := reflect.Zero(target)
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return zero.OverflowInt(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return zero.OverflowUint(v.Uint())
	case reflect.Float32, reflect.Float64:
		return zero.OverflowFloat(v.Float())
	}
	return false
}
