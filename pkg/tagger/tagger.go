// Package tagger infers categorical tags for a menu item.
//
// Classification is an ordered cascade and the order is part of the contract:
//
//  1. explicit tags carried by the record (diet/filter labels dropped)
//  2. explicit vegetarian flag
//  3. filter mode (only when no diet tag yet)
//  4. category keywords (only when no diet tag yet)
//  5. item-name keywords (only when neither a diet nor a category tag exists)
//
// Reordering the stages changes classification outcomes.
package tagger

import (
	"sort"
	"strings"
)

const (
	Vegetarian            = "Vegetarian"
	NonVegetarian         = "Non-Vegetarian"
	VegetarianInferred    = "Vegetarian (Inferred)"
	NonVegetarianInferred = "Non-Vegetarian (Inferred)"

	Beverage  = "Beverage"
	Dessert   = "Dessert"
	Side      = "Side"
	Pasta     = "Pasta"
	ComboMeal = "Combo/Meal"
	WrapRoll  = "Wrap/Roll"
)

// Input is the subset of a raw record the classifier looks at.
type Input struct {
	ItemName   string
	Tags       []string
	Vegetarian *bool
	FilterMode string
}

type keywordRule struct {
	tag      string
	keywords []string
}

// redundantTags are labels that only restate a source filter.
var redundantTags = map[string]bool{
	"Veg Only":              true,
	"Non Veg Only":          true,
	"Veg":                   true,
	"Non-Veg":               true,
	"desserts and bevrages": true,
}

var categoryRules = []keywordRule{
	{Beverage, []string{"bev", "drink"}},
	{Dessert, []string{"dessert", "cake", "cookie"}},
	{Side, []string{"side", "bread", "dip", "more", "fries"}},
	{Pasta, []string{"pasta"}},
	{ComboMeal, []string{"combo", "meal", "feast"}},
	{WrapRoll, []string{"wrap", "roll"}},
}

var nameRules = []keywordRule{
	{NonVegetarianInferred, []string{
		"chicken", "egg", "b.m.t", "tuna", "meatball", "keema", "turkey",
		"steak", "lamb", "mutton", "fish", "prawn", "pepperoni",
	}},
	{VegetarianInferred, []string{
		"paneer", "aloo", "veg", "corn", "peas", "bean", "shammi", "chilli",
		"hara bhara", "mushroom", "gobhi", "subz", "patty",
	}},
}

// Classify returns the sorted, deduplicated tag set for one item.
func Classify(in Input, category string) []string {
	var tags []string

	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" && !redundantTags[t] {
			tags = append(tags, t)
		}
	}

	if in.Vegetarian != nil {
		if *in.Vegetarian {
			tags = appendMissing(tags, Vegetarian)
		} else {
			tags = appendMissing(tags, NonVegetarian)
		}
	}

	if !hasAny(tags, Vegetarian, NonVegetarian) {
		switch in.FilterMode {
		case "Veg", "Veg Only":
			tags = append(tags, Vegetarian)
		case "Non-Veg", "Non Veg Only":
			tags = append(tags, NonVegetarian)
		}
	}

	dietTagged := hasAny(tags, Vegetarian, NonVegetarian)
	if !dietTagged {
		if tag, ok := match(categoryRules, category); ok {
			tags = append(tags, tag)
		}
	}

	otherTagged := hasAny(tags, Beverage, Dessert, Side, Pasta, ComboMeal, WrapRoll)
	if !dietTagged && !otherTagged {
		if tag, ok := match(nameRules, in.ItemName); ok {
			tags = append(tags, tag)
		}
	}

	return normalize(tags)
}

// match returns the tag of the first rule with a keyword contained in s.
func match(rules []keywordRule, s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.tag, true
			}
		}
	}
	return "", false
}

func hasAny(tags []string, want ...string) bool {
	for _, t := range tags {
		for _, w := range want {
			if t == w {
				return true
			}
		}
	}
	return false
}

func appendMissing(tags []string, tag string) []string {
	if hasAny(tags, tag) {
		return tags
	}
	return append(tags, tag)
}

func normalize(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
