// Package fixes has the fix-reference resolution and attribution pipeline.
package fixes

import (
	"strings"

	"github.com/huangsam/gitfixes/schema"
)

// Token length bounds for candidate references.
const (
	MinTokenLength = 8
	MaxTokenLength = 40
)

// FullIDLength is the length of a full hex commit id.
const FullIDLength = 40

// fixDeclaration is the lowercase label that marks an explicit fix line.
const fixDeclaration = "fixes:"

// revertPrefix starts a revert declaration line.
const revertPrefix = "This reverts commit "

// revertLineLength is the exact length of a revert declaration line.
const revertLineLength = len(revertPrefix) + FullIDLength

// scanState is the state of the token scanner.
type scanState int

const (
	stateDelimiter scanState = iota // after a blank, a colon or at line start
	stateWord                       // inside a word that cannot be a token
	stateToken                      // inside a run of hex digits that started at a delimiter
)

// charClass is the input alphabet of the token scanner.
type charClass int

const (
	classDelimiter charClass = iota
	classHex
	classOther
)

// transitions is indexed by [current state][character class].
var transitions = [3][3]scanState{
	stateDelimiter: {classDelimiter: stateDelimiter, classHex: stateToken, classOther: stateWord},
	stateWord:      {classDelimiter: stateDelimiter, classHex: stateWord, classOther: stateWord},
	stateToken:     {classDelimiter: stateDelimiter, classHex: stateToken, classOther: stateWord},
}

func classify(c byte) charClass {
	switch {
	case c == ' ' || c == '\t' || c == ':':
		return classDelimiter
	case isHexDigit(c):
		return classHex
	default:
		return classOther
	}
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// IsHex reports whether s is a non-empty string of hex digits.
func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

// ScanTokens returns the hex tokens of a single line in order.
// A token starts right after a delimiter or at line start, ends at the next
// delimiter or end of line, and is kept only when its length is within bounds.
func ScanTokens(line string) []string {
	var tokens []string
	state := stateDelimiter
	start := 0
	emit := func(end int) {
		if n := end - start; n >= MinTokenLength && n <= MaxTokenLength {
			tokens = append(tokens, line[start:end])
		}
	}
	for i := 0; i < len(line); i++ {
		next := transitions[state][classify(line[i])]
		switch {
		case state == stateToken && next == stateDelimiter:
			emit(i)
		case state == stateDelimiter && next == stateToken:
			start = i
		}
		state = next
	}
	if state == stateToken {
		emit(len(line))
	}
	return tokens
}

// IsFixDeclaration reports whether a line is an explicit "Fixes:" line.
func IsFixDeclaration(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), fixDeclaration)
}

// RevertTarget returns the lowercase id named by a revert declaration line.
// The line must be exactly the prefix followed by a full hex id.
func RevertTarget(line string) (string, bool) {
	if len(line) != revertLineLength || !strings.HasPrefix(line, revertPrefix) {
		return "", false
	}
	target := line[len(revertPrefix):]
	if !IsHex(target) {
		return "", false
	}
	return strings.ToLower(target), true
}

// HasStableMarker reports whether a line carries a stable-tree notification address.
func HasStableMarker(line string) bool {
	for _, marker := range schema.StableMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// ParseMessage parses a commit message into a Commit and the lowercase id of
// the commit it reverts, if any.
func ParseMessage(commitID, message string) (schema.Commit, string) {
	commit := schema.Commit{ID: commitID}
	var revertTarget string
	for rawLine := range strings.SplitSeq(message, "\n") {
		line := strings.TrimRight(rawLine, " \t\r\v\f")
		if line == "" {
			continue
		}
		if commit.Subject == "" {
			commit.Subject = line
		}
		if target, ok := RevertTarget(line); ok {
			revertTarget = target
		}
		if HasStableMarker(line) {
			commit.Stable = true
		}
		fixTag := IsFixDeclaration(line)
		for _, token := range ScanTokens(line) {
			commit.References = append(commit.References, schema.Reference{Token: token, FixTag: fixTag})
		}
	}
	return commit, revertTarget
}
