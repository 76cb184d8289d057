package integration

import (
	"encoding/json"
	"strconv"
	"strings"
)

// lookup finds key in p ignoring case
func (p RawPayload) lookup(key string) (any, bool) {
	if v, ok := p[key]; ok {
		return v, true
	}
	for k, v := range p {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Value returns the first of keys present in p, compared case-insensitively
func (p RawPayload) Value(keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := p.lookup(key); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// String returns the first of keys present in p as a trimmed string. Numbers
// and booleans are formatted; objects and lists yield "".
func (p RawPayload) String(keys ...string) string {
	v, ok := p.Value(keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(stringify(v))
}

// Object returns the first of keys holding a JSON object
func (p RawPayload) Object(keys ...string) RawPayload {
	for _, key := range keys {
		v, ok := p.lookup(key)
		if !ok {
			continue
		}
		switch obj := v.(type) {
		case map[string]any:
			return RawPayload(obj)
		case RawPayload:
			return obj
		}
	}
	return nil
}

// List returns the objects of the first of keys holding a JSON array.
// Non-object elements are dropped.
func (p RawPayload) List(keys ...string) []RawPayload {
	for _, key := range keys {
		v, ok := p.lookup(key)
		if !ok {
			continue
		}
		if items, ok := v.([]any); ok {
			return objects(items)
		}
	}
	return nil
}

func objects(items []any) []RawPayload {
	out := make([]RawPayload, 0, len(items))
	for _, it := range items {
		switch obj := it.(type) {
		case map[string]any:
			out = append(out, RawPayload(obj))
		case RawPayload:
			out = append(out, obj)
		}
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// AddressFromPayload reads an address that is either an object with
// Address1..Country parts or a plain string
func AddressFromPayload(p RawPayload, keys ...string) Address {
	if len(keys) == 0 {
		keys = []string{"Address"}
	}
	if obj := p.Object(keys...); obj != nil {
		return Address{
			Address1: obj.String("Address1", "Line1", "Street"),
			Address2: obj.String("Address2", "Line2"),
			City:     obj.String("City"),
			State:    obj.String("State", "Province"),
			Zip:      obj.String("Zip", "ZipCode", "PostalCode"),
			Country:  obj.String("Country"),
		}
	}
	return Address{Address1: p.String(keys...)}
}

// RemoteProjectFromPayload maps one entry of the remote project list
func RemoteProjectFromPayload(p RawPayload) RemoteProject {
	return RemoteProject{
		ID:          p.String("Id", "ProjectId"),
		Number:      p.String("Number", "ProjectNumber"),
		Name:        p.String("Name", "ProjectName"),
		Description: p.String("Description"),
		Status:      p.String("Status"),
		Address:     AddressFromPayload(p),
	}
}
