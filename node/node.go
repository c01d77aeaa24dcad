// Package node implements the Test Node model (§3, §4.1 Attributes, §4.3):
// a runnable test bound to a tuple of objects, with parent/child edges,
// clone/bridge links, per-worker edge bookkeeping, and run/clean policies.
// It is grounded on the teacher's runningModule/DependencyController
// lineage (configstack, internal/runner/configstack), generalized from a
// single Terraform module to an object-tuple-bound VM test.
package node

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/cartgraph/cartgraph/executor"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
)

// RetryStop names the status at which a retry sequence stops early (§3).
type RetryStop string

const (
	RetryStopNone RetryStop = "none"
	RetryStopPass RetryStop = "pass"
	RetryStopWarn RetryStop = "warn"
	RetryStopFail RetryStop = "fail"
	RetryStopErr  RetryStop = "error"
)

// matches reports whether status s should stop a retry sequence under rs.
func (rs RetryStop) matches(s executor.Status) bool {
	switch rs {
	case RetryStopPass:
		return s == executor.Pass
	case RetryStopWarn:
		return s == executor.Warn
	case RetryStopFail:
		return s == executor.Fail
	case RetryStopErr:
		return s == executor.Error
	default:
		return false
	}
}

// Result records one execution attempt (§3 "results").
type Result struct {
	Worker  string
	Attempt int
	Status  executor.Status
	LogDir  string
}

// ShouldRunFunc and ShouldCleanFunc are the lazily-evaluated, per-worker
// policies §3 and §9 describe: first-class predicates bound late so manual
// tools can override a subgraph's policy without subclassing.
type ShouldRunFunc func(workerID string) bool
type ShouldCleanFunc func(workerID string) bool

// Node is a runnable test bound to a tuple of objects (§3).
type Node struct {
	Prefix      string
	Fingerprint string

	// Objects[0] is always the net; followed by its vms and their images
	// (invariant 4).
	Objects []*object.Object

	Params restriction.Dict

	mu sync.Mutex

	// setupNodes/cleanupNodes record, per edge, which component objects
	// induced that dependency (invariant 2: symmetric).
	setupNodes   map[*Node][]*object.Object
	cleanupNodes map[*Node][]*object.Object

	// BridgedNodes are equivalences of this node across different worker
	// graphs (§4.2 step 6).
	BridgedNodes []*Node

	// ClonedNodes are clones produced by branch duplication (§4.5).
	ClonedNodes []*Node

	startedWorker         string
	finishedWorker        string
	sharedFinishedWorkers map[string]struct{}
	incompatibleWorkers   map[string]struct{}

	workerEdges map[string]*workerEdgeState

	ShouldRun   ShouldRunFunc
	ShouldClean ShouldCleanFunc

	// Checker backs the default ShouldRun's state-availability check (§3);
	// the Scheduler wires it to the real statesync.Backend.
	Checker StateChecker

	RetryAttempts int
	RetryStop     RetryStop

	Results []Result

	// AbortOnError raises a Skip upstream through every unvisited
	// descendant for the current worker when this node FAILs or ERRORs
	// (§7, §SPEC_FULL 4.4).
	AbortOnError bool

	// RunID uniquely identifies this Node value across process restarts,
	// independent of its (reproducible) Prefix/Fingerprint identity; it is
	// the correlation key logging and the executor's "_uid" attach to a
	// given invocation (SPEC_FULL §3 domain stack).
	RunID string
}

type workerEdgeState struct {
	remainingParents  map[*Node]bool
	remainingChildren map[*Node]bool
}

// New creates a Node bound to the given prefix, objects, and resolved
// parameter dictionary.
func New(prefix string, objects []*object.Object, params restriction.Dict) *Node {
	n := &Node{
		Prefix:                prefix,
		Objects:               objects,
		Params:                params,
		setupNodes:            map[*Node][]*object.Object{},
		cleanupNodes:          map[*Node][]*object.Object{},
		sharedFinishedWorkers: map[string]struct{}{},
		incompatibleWorkers:   map[string]struct{}{},
		workerEdges:           map[string]*workerEdgeState{},
		RetryStop:             RetryStopNone,
		AbortOnError:          params["abort_on_error"] == "yes",
		RunID:                 uuid.NewString(),
	}
	n.Fingerprint = fingerprint(params)

	return n
}

// ID is "<prefix>-<sorted vm suffixes>", unique within a graph (§4.3).
func (n *Node) ID() string {
	return n.Prefix + "-" + strings.Join(n.VMSuffixes(), ",")
}

// VMSuffixes returns the suffixes of this node's vm objects, sorted.
func (n *Node) VMSuffixes() []string {
	var suffixes []string

	for _, o := range n.Objects {
		if o.Kind == object.VM {
			suffixes = append(suffixes, o.Suffix)
		}
	}

	sort.Strings(suffixes)

	return suffixes
}

// Shortname is the human test name (§6 executor input "shortname").
func (n *Node) Shortname() string {
	return n.Params["shortname"]
}

// Net returns this node's net object (invariant 4: Objects[0]).
func (n *Node) Net() *object.Object {
	if len(n.Objects) == 0 {
		return nil
	}

	return n.Objects[0]
}

// GetState returns the required prior state for the named object component
// ("get_state_<suffix>"), or "" if this node has no dependency on that
// object.
func (n *Node) GetState(objSuffix string) string {
	return n.Params["get_state_"+objSuffix]
}

// SetState returns the state this node produces for the named object
// component ("set_state_<suffix>").
func (n *Node) SetState(objSuffix string) string {
	return n.Params["set_state_"+objSuffix]
}

// IsObjectRootFor reports whether this node is the object-root (install
// from scratch) node for objSuffix: it requires no prior state (invariant 4,
// §4.8).
func (n *Node) IsObjectRootFor(objSuffix string) bool {
	return n.GetState(objSuffix) == "root"
}

// SetlessKey is the node's identity modulo the net suffix it is bound to:
// shortname plus the sorted vm suffixes plus the fingerprint, used to bridge
// equivalent nodes across different workers' subgraphs (§4.2 step 6).
func (n *Node) SetlessKey() string {
	return n.Shortname() + "|" + strings.Join(n.VMSuffixes(), ",") + "|" + n.Fingerprint
}

func fingerprint(params restriction.Dict) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
		b.WriteByte(';')
	}

	return b.String()
}
