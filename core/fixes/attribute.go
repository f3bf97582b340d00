package fixes

import (
	"strings"

	"github.com/huangsam/gitfixes/schema"
)

// Attributor assigns an owner to a match and applies the committer filter.
// The organisation override runs first, then the filter sees the final owner.
type Attributor struct {
	domains   []string
	committer string
	showAll   bool
}

// NewAttributor creates an attributor. Domains are compared case-insensitively.
func NewAttributor(domains []string, committer string, showAll bool) *Attributor {
	lowered := make([]string, 0, len(domains))
	for _, d := range domains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			lowered = append(lowered, strings.TrimPrefix(d, "@"))
		}
	}
	return &Attributor{domains: lowered, committer: committer, showAll: showAll}
}

// EmailDomain returns the lowercase part of an email after the last "@".
func EmailDomain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}

// InDomains reports whether email belongs to a configured organisation domain.
func (a *Attributor) InDomains(email string) bool {
	domain := EmailDomain(email)
	if domain == "" {
		return false
	}
	for _, d := range a.domains {
		if domain == d {
			return true
		}
	}
	return false
}

// Attribute returns whether the match is accepted and who owns it.
func (a *Attributor) Attribute(entry schema.KnownEntry, authorEmail, committerEmail string) (bool, string) {
	owner := entry.Owner
	switch {
	case a.InDomains(authorEmail):
		owner = authorEmail
	case a.InDomains(committerEmail):
		owner = committerEmail
	}
	if a.committer != "" && !a.showAll && !strings.Contains(owner, a.committer) {
		return false, owner
	}
	return true, owner
}
