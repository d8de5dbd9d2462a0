// Package xstrings holds small string helpers shared across the app.
package xstrings

import "strings"

type Comparable interface{ ~int | ~int64 | ~string }

func UniqueSlice[T Comparable](s []T) []T {
	keys := make(map[T]bool)
	list := []T{}
	for _, entry := range s {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// ParseList splits a comma-separated value into trimmed, deduplicated
// entries. Empty entries are dropped; an all-whitespace input yields nil.
// Used for tag fields and API key lists.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if out == nil {
		return nil
	}
	return UniqueSlice(out)
}
