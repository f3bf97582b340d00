package fixes

import "strings"

// RevertMap maps a reverting commit id to the id it reverts.
type RevertMap map[string]string

// Record stores a revert declaration seen during the walk.
func (m RevertMap) Record(reverter, target string) {
	m[strings.ToLower(reverter)] = strings.ToLower(target)
}

// Targets returns the set of reverted ids.
func (m RevertMap) Targets() map[string]struct{} {
	targets := make(map[string]struct{}, len(m))
	for _, target := range m {
		targets[target] = struct{}{}
	}
	return targets
}
