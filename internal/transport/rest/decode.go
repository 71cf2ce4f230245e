package rest

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"

	"github.com/abgdnv/bankproduct/internal/service"
)

// decodeCreate reads a create request body.
// Each known field is decoded on its own, so every field with a wrong type is reported and the
// remaining fields are still filled in; complete is true in that case. A body that is not a single
// JSON object stops decoding with a body error and complete false.
func decodeCreate(body io.Reader) (dto service.ProductCreateDto, fieldErrs []service.FieldError, complete bool) {
	raw, bodyErr := decodeObject(body)
	if bodyErr != nil {
		return dto, []service.FieldError{*bodyErr}, false
	}

	fields := []struct {
		name   string
		target any
	}{
		{"name", &dto.Name},
		{"productType", &dto.ProductType},
		{"comision", &dto.Comision},
		{"limitMovimientos", &dto.LimitMovimientos},
		{"createdAt", &dto.CreatedAt},
	}
	for _, f := range fields {
		value, ok := lookupField(raw, f.name)
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, f.target); err != nil {
			fieldErrs = append(fieldErrs, service.FieldError{Field: f.name, Message: fieldMessage(err)})
		}
	}
	return dto, fieldErrs, true
}

// decodeObject reads exactly one JSON object from body.
func decodeObject(body io.Reader) (map[string]json.RawMessage, *service.FieldError) {
	dec := json.NewDecoder(body)
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return nil, &service.FieldError{Field: "body", Message: "must not be empty"}
		case errors.As(err, &typeErr):
			return nil, &service.FieldError{Field: "body", Message: "must be a JSON object"}
		default:
			return nil, &service.FieldError{Field: "body", Message: "is malformed: " + strings.TrimPrefix(err.Error(), "json: ")}
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &service.FieldError{Field: "body", Message: "is malformed: unexpected data after the JSON object"}
	}
	return raw, nil
}

// lookupField matches keys the way encoding/json does: an exact key wins over a case-insensitive one.
func lookupField(raw map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if value, ok := raw[name]; ok {
		return value, true
	}
	for key, value := range raw {
		if strings.EqualFold(key, name) {
			return value, true
		}
	}
	return nil, false
}

func fieldMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, service.ErrInvalidTimestamp):
		return "must be an RFC 3339 timestamp"
	case errors.As(err, &typeErr):
		return typeMessage(typeErr)
	default:
		return "has an invalid value"
	}
}

func typeMessage(typeErr *json.UnmarshalTypeError) string {
	// a Value of "number <literal>" means the literal did not fit the numeric type
	misfit := strings.HasPrefix(typeErr.Value, "number ")
	switch typeErr.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if misfit {
			return "must be an integer within range"
		}
		return "must be a number"
	case reflect.Float32, reflect.Float64:
		if misfit {
			return "is out of range"
		}
		return "must be a number"
	case reflect.String:
		return "must be a string"
	default:
		return "has an invalid type"
	}
}

// mergeFieldErrors appends the rule violations of fields that have no decoding error yet.
func mergeFieldErrors(decodeErrs, ruleErrs []service.FieldError) []service.FieldError {
	merged := append([]service.FieldError(nil), decodeErrs...)
	for _, re := range ruleErrs {
		seen := false
		for _, de := range decodeErrs {
			if de.Field == re.Field {
				seen = true
				break
			}
		}
		if !seen {
			merged = append(merged, re)
		}
	}
	return merged
}
