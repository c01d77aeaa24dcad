// Package setuplist persists the run/clean decisions a scan produced so a
// later manual-tool invocation can resume against them instead of
// recomputing a fresh traversal decision (§6 "Persisted state",
// SPEC_FULL §4 item 8). Format: one line per node,
// "<node-long-prefix> <should_run:0|1> <should_clean:0|1>".
package setuplist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gruntwork-io/go-commons/files"

	"github.com/cartgraph/cartgraph/internal/errors"
)

// Entry is one persisted decision for a node, keyed by its long prefix
// (node.Node.ID()).
type Entry struct {
	Prefix      string
	ShouldRun   bool
	ShouldClean bool
}

// List is an ordered set of persisted Entry values, one per scanned node.
type List struct {
	entries []Entry
	byID    map[string]int
}

// New builds an empty List.
func New() *List {
	return &List{byID: map[string]int{}}
}

// Set records (or overwrites) the decision for prefix.
func (l *List) Set(prefix string, shouldRun, shouldClean bool) {
	if l.byID == nil {
		l.byID = map[string]int{}
	}

	if i, ok := l.byID[prefix]; ok {
		l.entries[i] = Entry{Prefix: prefix, ShouldRun: shouldRun, ShouldClean: shouldClean}
		return
	}

	l.byID[prefix] = len(l.entries)
	l.entries = append(l.entries, Entry{Prefix: prefix, ShouldRun: shouldRun, ShouldClean: shouldClean})
}

// Get looks up the persisted decision for prefix.
func (l *List) Get(prefix string) (Entry, bool) {
	i, ok := l.byID[prefix]
	if !ok {
		return Entry{}, false
	}

	return l.entries[i], true
}

// Entries returns every persisted entry, sorted by prefix for deterministic
// output.
func (l *List) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)

	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })

	return out
}

// Write serializes l to w, one "<prefix> <run> <clean>" line per entry.
func (l *List) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, e := range l.Entries() {
		if _, err := fmt.Fprintf(bw, "%s %s %s\n", e.Prefix, bit(e.ShouldRun), bit(e.ShouldClean)); err != nil {
			return errors.WithStackTrace(err)
		}
	}

	return errors.WithStackTrace(bw.Flush())
}

// WriteFile writes l to path, creating or truncating it.
func (l *List) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer f.Close()

	return l.Write(f)
}

// Read parses a setup_list stream in the format Write produces.
func Read(r io.Reader) (*List, error) {
	l := New()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errors.Errorf("malformed setup_list line %q: expected \"<prefix> <run> <clean>\"", line)
		}

		l.Set(fields[0], fields[1] == "1", fields[2] == "1")
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	return l, nil
}

// ReadFile loads a persisted setup_list from path. A missing file yields an
// empty List rather than an error, mirroring a fresh scan with no prior run.
func ReadFile(path string) (*List, error) {
	if !files.FileExists(path) {
		return New(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	defer f.Close()

	return Read(f)
}

func bit(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
