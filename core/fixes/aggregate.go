package fixes

import (
	"sort"
	"strings"

	"github.com/huangsam/gitfixes/schema"
)

// Aggregator groups matches by owner in discovery order.
type Aggregator struct {
	grouping bool
	groups   map[string][]schema.MatchResult
	pruned   bool
}

// NewAggregator creates an aggregator. With grouping off every match lands
// in the schema.DefaultGroup key.
func NewAggregator(grouping bool) *Aggregator {
	return &Aggregator{grouping: grouping, groups: make(map[string][]schema.MatchResult)}
}

// Add appends a match to its owner's group.
func (a *Aggregator) Add(owner string, match schema.MatchResult) {
	key := owner
	if !a.grouping {
		key = schema.DefaultGroup
	}
	a.groups[key] = append(a.groups[key], match)
}

// Len returns the total number of matches across groups.
func (a *Aggregator) Len() int {
	n := 0
	for _, matches := range a.groups {
		n += len(matches)
	}
	return n
}

// Prune removes every match whose commit was reverted, across all groups,
// and returns how many were removed. It must run once, after the walk.
func (a *Aggregator) Prune(reverts RevertMap) int {
	if a.pruned {
		return 0
	}
	a.pruned = true

	targets := reverts.Targets()
	if len(targets) == 0 {
		return 0
	}
	removed := 0
	for owner, matches := range a.groups {
		kept := matches[:0]
		for _, m := range matches {
			if _, ok := targets[strings.ToLower(m.CommitID)]; ok {
				removed++
				continue
			}
			kept = append(kept, m)
		}
		a.groups[owner] = kept
	}
	return removed
}

// Groups returns the non-empty groups sorted by owner.
func (a *Aggregator) Groups() []schema.MatchGroup {
	groups := make([]schema.MatchGroup, 0, len(a.groups))
	for owner, matches := range a.groups {
		if len(matches) == 0 {
			continue
		}
		groups = append(groups, schema.MatchGroup{
			Owner:   owner,
			Matches: append([]schema.MatchResult(nil), matches...),
		})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Owner < groups[j].Owner
	})
	return groups
}
