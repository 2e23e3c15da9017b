package normalizer

import (
	"github.com/tidwall/gjson"
)

// Record is one raw item as yielded by an adapter, with whatever context the
// enclosing structure contributed (category key, filter key, item-name key).
type Record struct {
	Item gjson.Result

	// Name overrides the item's own name fields when the source keys items by name.
	Name string
	// Category is the resolved category; empty means unknown.
	Category string
	// FilterMode is the source filter bucket (e.g. "Veg Only"), if any.
	FilterMode string
	// Vegetarian overrides the item's own is_vegetarian flag when set.
	Vegetarian *bool
}

func (r Record) name() string {
	if r.Name != "" {
		return r.Name
	}
	if name := textField(r.Item, "item_name"); name != "" {
		return name
	}
	return textField(r.Item, "name")
}

func (r Record) filterMode() string {
	if r.FilterMode != "" {
		return r.FilterMode
	}
	return textField(r.Item, "filter_mode")
}

func (r Record) vegetarian() *bool {
	if r.Vegetarian != nil {
		return r.Vegetarian
	}
	v := field(r.Item, "is_vegetarian")
	switch v.Type {
	case gjson.True:
		b := true
		return &b
	case gjson.False:
		b := false
		return &b
	}
	return nil
}

func (r Record) tags() []string {
	v := field(r.Item, "special_tags")
	if !v.IsArray() {
		return nil
	}
	var tags []string
	for _, t := range v.Array() {
		if t.Type == gjson.String {
			tags = append(tags, t.String())
		}
	}
	return tags
}

// field looks up a direct child by exact key. Unlike gjson paths it does not
// interpret dots, wildcards or escapes in the key.
func field(obj gjson.Result, key string) gjson.Result {
	var out gjson.Result
	if !obj.IsObject() {
		return out
	}
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
			return false
		}
		return true
	})
	return out
}

func hasField(obj gjson.Result, key string) bool {
	return field(obj, key).Exists()
}

// textField returns a string or numeric child as text, "" for anything else.
func textField(obj gjson.Result, key string) string {
	v := field(obj, key)
	switch v.Type {
	case gjson.String, gjson.Number:
		return v.String()
	}
	return ""
}

// first returns the first value of an object in document order.
func first(obj gjson.Result) (gjson.Result, bool) {
	var out gjson.Result
	found := false
	obj.ForEach(func(_, v gjson.Result) bool {
		out = v
		found = true
		return false
	})
	return out, found
}

func boolPtr(b bool) *bool {
	return &b
}
