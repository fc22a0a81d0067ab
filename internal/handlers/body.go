package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/volm-robotics/volm-backend/internal/apperror"
)

var ErrInvalidBody = apperror.Validation("Invalid request body")

// ParseBody decodes a JSON object body into the struct pointed to by v. An
// empty body leaves v untouched. Keys must match a json tag exactly; any
// other key, including a differently cased one, is ignored. A value of the
// wrong JSON type for a known field is reported as "Invalid value for
// <field>"; anything else that fails to decode is ErrInvalidBody. The
// Content-Type header is not consulted.
func ParseBody(c *fiber.Ctx, v interface{}) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return ErrInvalidBody
	}

	known := jsonKeys(v)
	for key := range raw {
		if !known[key] {
			delete(raw, key)
		}
	}
	if len(raw) == 0 {
		return nil
	}

	exact, err := json.Marshal(raw)
	if err != nil {
		return ErrInvalidBody
	}
	if err := json.Unmarshal(exact, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.Validation("Invalid value for " + typeErr.Field)
		}
		return ErrInvalidBody
	}
	return nil
}

// jsonKeys lists the object keys encoding/json would map onto v's fields.
func jsonKeys(v interface{}) map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return keys
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		keys[name] = true
	}
	return keys
}
