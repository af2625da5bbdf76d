// Package admin answers whether a chat user is on the configured admin allow-list.
package admin

import "sort"

// Checker holds the admin allow-list.
type Checker struct {
	ids map[string]struct{}
}

// New creates a Checker for the given identities. Empty entries are ignored.
func New(ids []string) *Checker {
	c := &Checker{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			c.ids[id] = struct{}{}
		}
	}
	return c
}

// IsAdmin reports whether userID exactly matches a configured admin identity.
func (c *Checker) IsAdmin(userID string) bool {
	if c == nil || userID == "" {
		return false
	}
	_, ok := c.ids[userID]
	return ok
}

// IDs returns the allow-list sorted for display.
func (c *Checker) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.ids))
	for id := range c.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
