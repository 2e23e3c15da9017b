package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var priceToken = regexp.MustCompile(`\d[\d,]*\.?\d*`)

// ParsePrice accepts a raw numeric value directly, or extracts the first
// digits[,digits][.digits] token from a string. Anything else yields nil.
func ParsePrice(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		return &f
	case gjson.String:
		return ParsePriceString(v.String())
	}
	return nil
}

// ParsePriceString is ParsePrice for an already-extracted string.
func ParsePriceString(s string) *float64 {
	token := priceToken.FindString(s)
	if token == "" {
		return nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &f
}

// rawText is the source's own rendering of a scalar, used to spot
// descriptions that merely repeat the price.
func rawText(v gjson.Result) string {
	if v.Type == gjson.String {
		return v.String()
	}
	return v.Raw
}

// truthy mirrors "a price was supplied": present, non-null, non-empty, non-zero.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.String() != ""
	case gjson.Number:
		return v.Float() != 0
	case gjson.True, gjson.JSON:
		return true
	}
	return false
}
