// Package who answers "who knows this code" from a path-ownership map.
package who

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/huangsam/gitfixes/schema"
)

// PathMap maps a repository path to the people who touched it.
type PathMap map[string][]schema.Person

// ParsePathMap reads `path;name:count;name:count;...` records. Lines without
// a ';' and tokens without a ':' are skipped. Repeated names on one line are
// summed.
func ParsePathMap(r io.Reader) (PathMap, error) {
	m := make(PathMap)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		path, rest, ok := strings.Cut(scanner.Text(), ";")
		if !ok {
			continue
		}
		var people []schema.Person
		for _, token := range strings.Split(rest, ";") {
			name, count, ok := strings.Cut(token, ":")
			if !ok {
				continue
			}
			n, _ := strconv.Atoi(strings.TrimSpace(count))
			people = addPerson(people, schema.Person{Name: name, Count: n})
		}
		m[path] = people
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadPathMapFile reads the path map at path.
func LoadPathMapFile(path string) (PathMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open path-map file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParsePathMap(f)
}

// Lookup returns the people for paths, most active first.
//
// A path with no entry of its own is replaced by its longest ancestor that has
// one. Paths under an ancestor chosen this way are dropped so the ancestor is
// only counted once.
func (m PathMap) Lookup(paths []string) []schema.Person {
	prefixes := make(map[string]struct{})
	for _, path := range paths {
		if _, ok := m[path]; ok {
			continue
		}
		if prefix, ok := m.ancestor(path); ok {
			prefixes[prefix] = struct{}{}
		}
	}

	selected := make(map[string]struct{}, len(prefixes))
	for prefix := range prefixes {
		selected[prefix] = struct{}{}
	}
	for _, path := range paths {
		if underAny(path, prefixes) {
			continue
		}
		if _, ok := m[path]; ok {
			selected[path] = struct{}{}
		}
	}

	keys := make([]string, 0, len(selected))
	for key := range selected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var people []schema.Person
	for _, key := range keys {
		for _, p := range m[key] {
			people = addPerson(people, p)
		}
	}
	sortPeople(people)
	return people
}

// ancestor strips trailing segments from path until an entry exists.
func (m PathMap) ancestor(path string) (string, bool) {
	for path != "" {
		i := strings.LastIndexByte(path, '/')
		if i < 0 {
			return "", false
		}
		path = path[:i]
		if _, ok := m[path]; ok && path != "" {
			return path, true
		}
	}
	return "", false
}

func underAny(path string, prefixes map[string]struct{}) bool {
	for prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func addPerson(people []schema.Person, p schema.Person) []schema.Person {
	for i := range people {
		if people[i].Name == p.Name {
			people[i].Count += p.Count
			return people
		}
	}
	return append(people, p)
}

// sortPeople orders by count descending, then by name.
func sortPeople(people []schema.Person) {
	sort.SliceStable(people, func(i, j int) bool {
		if people[i].Count != people[j].Count {
			return people[i].Count > people[j].Count
		}
		return people[i].Name < people[j].Name
	})
}
