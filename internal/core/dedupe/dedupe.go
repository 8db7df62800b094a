// Package dedupe keeps generated entity names distinct within an entity type.
package dedupe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var suffixPattern = regexp.MustCompile(`^(.*\S)\s+\((\d+)\)$`)

// Deduplicator tracks names already taken, compared case-insensitively.
// It is not safe for concurrent use.
type Deduplicator struct {
	taken map[string]bool
}

func NewDeduplicator(existing []string) *Deduplicator {
	d := &Deduplicator{taken: make(map[string]bool, len(existing))}
	for _, name := range existing {
		d.taken[normalize(name)] = true
	}
	return d
}

// Claim reserves name, returning it unchanged when free or with the lowest
// free " (n)" suffix, n >= 2, when taken. An existing suffix on name is
// treated as part of the base: "Ada (2)" collides into "Ada (3)".
func (d *Deduplicator) Claim(name string) string {
	name = strings.TrimSpace(name)
	if !d.taken[normalize(name)] {
		d.taken[normalize(name)] = true
		return name
	}

	base, n := name, 2
	if m := suffixPattern.FindStringSubmatch(name); m != nil {
		if parsed, err := strconv.Atoi(m[2]); err == nil {
			base, n = m[1], parsed+1
		}
	}
	for {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !d.taken[normalize(candidate)] {
			d.taken[normalize(candidate)] = true
			return candidate
		}
		n++
	}
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
