package node

import (
	"strconv"
	"strings"
)

// PrefixAllocator hands out the "<n>" leaf prefixes during graph
// construction (§4.3); Parent, Clone and BridgedTwin append "a", "d<k>" and
// "b<k>" to an existing prefix. Before also ranks a "c" letter, which no
// function here appends.
type PrefixAllocator struct {
	leaf int
}

// NewPrefixAllocator starts a fresh leaf counter.
func NewPrefixAllocator() *PrefixAllocator {
	return &PrefixAllocator{}
}

// NextLeaf returns the next top-level leaf prefix.
func (a *PrefixAllocator) NextLeaf() string {
	a.leaf++

	return strconv.Itoa(a.leaf)
}

// Parent derives a parent prefix from a child's prefix.
func Parent(childPrefix string) string {
	return childPrefix + "a"
}

// Clone derives the k-th clone's prefix from the source prefix.
func Clone(sourcePrefix string, k int) string {
	return sourcePrefix + "d" + strconv.Itoa(k)
}

// BridgedTwin derives the k-th cross-worker bridge twin's prefix.
func BridgedTwin(sourcePrefix string, k int) string {
	return sourcePrefix + "b" + strconv.Itoa(k)
}

// prefixParts is the parsed (digits, letter, rest) tuple §4.3 describes.
type prefixParts struct {
	digits int
	letter byte
	rest   string
}

func parsePrefix(p string) prefixParts {
	i := 0
	for i < len(p) && p[i] >= '0' && p[i] <= '9' {
		i++
	}

	digits, _ := strconv.Atoi(p[:i])

	var letter byte
	if i < len(p) {
		letter = p[i]
		i++
	}

	return prefixParts{digits: digits, letter: letter, rest: p[i:]}
}

// letterRank tie-breaks so that parents ("a") sort ahead of cleanups ("c")
// (§4.3).
func letterRank(letter byte) int {
	switch letter {
	case 0:
		return 0
	case 'a':
		return 1
	case 'b':
		return 2
	case 'd':
		return 3
	case 'c':
		return 4
	default:
		return 5
	}
}

// Before is the advisory ordering comparator (§4.3): it drives the
// tie-break in child/parent selection, not correctness.
func Before(x, y string) bool {
	px, py := parsePrefix(x), parsePrefix(y)

	if px.digits != py.digits {
		return px.digits < py.digits
	}

	rx, ry := letterRank(px.letter), letterRank(py.letter)
	if rx != ry {
		return rx < ry
	}

	return strings.Compare(px.rest, py.rest) < 0
}
