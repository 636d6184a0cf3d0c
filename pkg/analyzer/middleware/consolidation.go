package middleware

import (
	"strings"
	"unicode/utf16"
)

// functionKeywords are checked in order; an implementation lands in the
// bucket of the first keyword its name contains.
var functionKeywords = []string{
	"auth",
	"validate",
	"cors",
	"rate",
	"log",
	"error",
	"session",
	"cache",
	"security",
	"permission",
	"guard",
}

// OtherGroup collects implementations matching no functional keyword.
const OtherGroup = "other"

// FunctionalKeyword returns the bucket keyword for a middleware name.
func FunctionalKeyword(name string) string {
	lower := strings.ToLower(name)
	for _, kw := range functionKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return OtherGroup
}

// GroupByFunction buckets implementations by functional keyword. Buckets
// appear in the order their first member was seen.
func GroupByFunction(impls []Implementation) []FunctionalGroup {
	var groups []FunctionalGroup
	index := make(map[string]int)
	for _, impl := range impls {
		kw := FunctionalKeyword(impl.Name)
		i, ok := index[kw]
		if !ok {
			i = len(groups)
			index[kw] = i
			groups = append(groups, FunctionalGroup{Keyword: kw})
		}
		groups[i].Implementations = append(groups[i].Implementations, impl)
	}
	return groups
}

func implementationNames(impls []Implementation) string {
	names := make([]string, len(impls))
	for i, impl := range impls {
		names[i] = impl.Name
	}
	return strings.Join(names, ", ")
}

// textLength counts UTF-16 code units, so characters outside the Basic
// Multilingual Plane count twice, as they do for JavaScript strings.
func textLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}
