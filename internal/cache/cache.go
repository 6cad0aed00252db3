// Package cache implements the (owner, normalized text) response cache that
// lets a repeated question skip the expensive branches of a run.
package cache

import "strings"

// NormalizeText canonicalizes the text half of a cache key: lower-cased,
// leading/trailing space removed, internal whitespace collapsed to single
// spaces. Both lookup and store go through this so the two paths agree.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
