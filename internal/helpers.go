package internal

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidParam is returned by Param and Query for values that do not parse.
var ErrInvalidParam = errors.New("invalid parameter")

// ContextValue returns the context value stored under key, or the zero T.
func ContextValue[T any](c Context, key any) T {
	if v, ok := c.Get(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Param parses a URL path parameter. A missing parameter is ErrInvalidParam.
func Param[T ~string | ~int | ~int64 | ~bool](c Context, name string) (T, error) {
	v, ok := convertParam[T](c.Param(name))
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrInvalidParam, name)
	}
	return v, nil
}

// Query parses a query parameter. It reports false when the parameter is absent.
func Query[T ~string | ~int | ~int64 | ~bool](c Context, name string) (T, bool, error) {
	var zero T
	raw := c.Query(name)
	if raw == "" {
		return zero, false, nil
	}
	v, ok := convertParam[T](raw)
	if !ok {
		return zero, true, fmt.Errorf("%w: %s", ErrInvalidParam, name)
	}
	return v, true, nil
}

// QueryDefault returns a typed query parameter, or defaultValue when it is
// empty or does not parse.
func QueryDefault[T ~string | ~int | ~int64 | ~bool](c Context, name string, defaultValue T) T {
	v, ok, err := Query[T](c, name)
	if !ok || err != nil {
		return defaultValue
	}
	return v
}

func convertParam[T ~string | ~int | ~int64 | ~bool](raw string) (T, bool) {
	var zero T
	if raw == "" {
		return zero, false
	}
	switch any(zero).(type) {
	case string:
		return any(raw).(T), true
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	case bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return zero, false
		}
		return any(v).(T), true
	}
	return zero, false
}
