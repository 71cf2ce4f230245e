package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimestamp reports a createdAt value that is not an RFC 3339 JSON string.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// OptionalTime is a timestamp that may be absent from a request.
// Valid reports whether the client supplied a value; JSON null and a missing field both leave it false.
type OptionalTime struct {
	Time  time.Time
	Valid bool
}

// SomeTime returns an OptionalTime holding t.
func SomeTime(t time.Time) OptionalTime {
	return OptionalTime{Time: t, Valid: true}
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Time)
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*o = OptionalTime{}
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	*o = SomeTime(t)
	return nil
}
