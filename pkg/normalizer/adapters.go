package normalizer

import (
	"github.com/tidwall/gjson"
)

// Adapter parses one known raw source shape.
type Adapter interface {
	// Name identifies the shape in logs and ingest reports.
	Name() string
	// Match reports whether the document carries this shape's structural markers.
	Match(root gjson.Result) bool
	// Records yields the raw items in document order.
	Records(root gjson.Result) []Record
}

// filterKeys mark a category -> filter -> items nesting under menu_details.
var filterKeys = []string{"Veg Only", "Non Veg Only", "desserts and bevrages"}

// DefaultAdapters returns the known shapes in probe order. The first match wins.
func DefaultAdapters() []Adapter {
	return []Adapter{
		flatList{},
		categoryFilterList{},
		detailsCategoryFilter{},
		detailsCategoryList{},
		detailsCategoryItem{},
		filterItem{},
	}
}

// flatList: {"menu": [{"item_name": ..., "category": ...}, ...]}
type flatList struct{}

func (flatList) Name() string { return "flat_list" }

func (flatList) Match(root gjson.Result) bool {
	menu := field(root, "menu")
	if !menu.IsArray() {
		return false
	}
	items := menu.Array()
	if len(items) == 0 || !items[0].IsObject() {
		return false
	}
	return hasField(items[0], "item_name") || hasField(items[0], "name")
}

func (flatList) Records(root gjson.Result) []Record {
	var out []Record
	for _, item := range field(root, "menu").Array() {
		if !item.IsObject() {
			continue
		}
		out = append(out, Record{Item: item, Category: textField(item, "category")})
	}
	return out
}

// categoryFilterList: {"menu_by_category_filter": {category: {filter: [items]}}}
type categoryFilterList struct{}

func (categoryFilterList) Name() string { return "category_filter_list" }

func (categoryFilterList) Match(root gjson.Result) bool {
	return field(root, "menu_by_category_filter").IsObject()
}

func (categoryFilterList) Records(root gjson.Result) []Record {
	return categoryFilterRecords(field(root, "menu_by_category_filter"))
}

// detailsCategoryFilter: {"menu_details": {category: {"Veg Only": [items], ...}}}
type detailsCategoryFilter struct{}

func (detailsCategoryFilter) Name() string { return "details_category_filter" }

func (detailsCategoryFilter) Match(root gjson.Result) bool {
	head, ok := firstDetail(root)
	if !ok || !head.IsObject() {
		return false
	}
	for _, key := range filterKeys {
		if hasField(head, key) {
			return true
		}
	}
	return false
}

func (detailsCategoryFilter) Records(root gjson.Result) []Record {
	return categoryFilterRecords(field(root, "menu_details"))
}

// detailsCategoryList: {"menu_details": {category: [items]}}
type detailsCategoryList struct{}

func (detailsCategoryList) Name() string { return "details_category_list" }

func (detailsCategoryList) Match(root gjson.Result) bool {
	head, ok := firstDetail(root)
	return ok && head.IsArray()
}

func (detailsCategoryList) Records(root gjson.Result) []Record {
	var out []Record
	field(root, "menu_details").ForEach(func(category, items gjson.Result) bool {
		if !items.IsArray() {
			return true
		}
		for _, item := range items.Array() {
			if item.IsObject() {
				out = append(out, Record{Item: item, Category: category.String()})
			}
		}
		return true
	})
	return out
}

// detailsCategoryItem: {"menu_details": {category: {item name: {price: ...}}}}
type detailsCategoryItem struct{}

func (detailsCategoryItem) Name() string { return "details_category_item" }

func (detailsCategoryItem) Match(root gjson.Result) bool {
	head, ok := firstDetail(root)
	return ok && head.IsObject()
}

func (detailsCategoryItem) Records(root gjson.Result) []Record {
	var out []Record
	field(root, "menu_details").ForEach(func(category, items gjson.Result) bool {
		if !items.IsObject() {
			return true
		}
		items.ForEach(func(name, info gjson.Result) bool {
			if info.IsObject() {
				out = append(out, Record{Item: info, Name: name.String(), Category: category.String()})
			}
			return true
		})
		return true
	})
	return out
}

// filterItem: {"menu": {"Veg": {item name: {...}}, "Non-Veg": {...}}}
type filterItem struct{}

func (filterItem) Name() string { return "filter_item" }

func (filterItem) Match(root gjson.Result) bool {
	menu := field(root, "menu")
	return menu.IsObject() && (hasField(menu, "Veg") || hasField(menu, "Non-Veg"))
}

func (filterItem) Records(root gjson.Result) []Record {
	var out []Record
	field(root, "menu").ForEach(func(filter, items gjson.Result) bool {
		if !items.IsObject() {
			return true
		}
		var veg *bool
		switch filter.String() {
		case "Veg":
			veg = boolPtr(true)
		case "Non-Veg":
			veg = boolPtr(false)
		}
		items.ForEach(func(name, info gjson.Result) bool {
			if !info.IsObject() {
				return true
			}
			category := textField(info, "original_category")
			if category == "" {
				category = unknownCategory
			}
			out = append(out, Record{Item: info, Name: name.String(), Category: category, Vegetarian: veg})
			return true
		})
		return true
	})
	return out
}

// categoryFilterRecords walks category -> filter -> [items]. An item's own
// category and filter_mode take precedence over the enclosing keys.
func categoryFilterRecords(menu gjson.Result) []Record {
	var out []Record
	menu.ForEach(func(category, filters gjson.Result) bool {
		if !filters.IsObject() {
			return true
		}
		filters.ForEach(func(filter, items gjson.Result) bool {
			if !items.IsArray() {
				return true
			}
			for _, item := range items.Array() {
				if !item.IsObject() {
					continue
				}
				rec := Record{Item: item, Category: category.String(), FilterMode: filter.String()}
				if hasField(item, "category") {
					rec.Category = textField(item, "category")
				}
				if hasField(item, "filter_mode") {
					rec.FilterMode = textField(item, "filter_mode")
				}
				out = append(out, rec)
			}
			return true
		})
		return true
	})
	return out
}

func firstDetail(root gjson.Result) (gjson.Result, bool) {
	details := field(root, "menu_details")
	if !details.IsObject() {
		return gjson.Result{}, false
	}
	return first(details)
}
