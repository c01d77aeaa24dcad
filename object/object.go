// Package object implements the Test Object model (§4.1): the identity of a
// VM/image/net variant, its parameter dictionary, its compatibility
// restrictions against peer objects, and its place in the composition tree
// net -> vm -> image.
package object

import (
	"sort"
	"strings"

	"github.com/cartgraph/cartgraph/restriction"
)

// Kind distinguishes the three object kinds spec.md §3 defines.
type Kind string

const (
	Image Kind = "image"
	VM    Kind = "vm"
	Net   Kind = "net"
)

// Object is a configuration-identified VM/image/net with a variant and
// parameters (GLOSSARY).
type Object struct {
	Suffix  string
	Variant string
	Kind    Kind

	// Params is this object's own final, validated parameter dictionary.
	Params restriction.Dict

	// Restrictions maps a peer suffix to the restriction expression this
	// object imposes on that peer ("this object is compatible only with
	// peers matching this restriction").
	Restrictions map[string]string

	// Components are composition children: a net's vms, a vm's images.
	Components []*Object

	// Composites are composition parents: an image's vm(s), a vm's net(s).
	// More than one entry only arises transiently while resolving fan-in
	// during graph construction; the primary (first) entry defines the
	// object's parameter scope chain for TypedParams.
	Composites []*Object

	// Permanent marks a vm object whose object-root install must never run
	// unless the node explicitly opts in (§4.8, §SPEC_FULL 4.2).
	Permanent bool

	// RequireExistence makes an empty composite join fatal instead of
	// merely marking the node incompatible with the worker (§SPEC_FULL 4.3).
	RequireExistence bool
}

// Name is the object's identity string, "<suffix>.<variant>".
func (o *Object) Name() string {
	if o.Variant == "" {
		return o.Suffix
	}

	return o.Suffix + "." + o.Variant
}

// AddComponent wires a composition edge in both directions.
func (o *Object) AddComponent(child *Object) {
	o.Components = append(o.Components, child)
	child.Composites = append(child.Composites, o)
}

// TypedParams returns params resolved through the composite chain
// (net -> vm -> image) so every parameter is visible in o's scope, with
// more specific (closer to o) definitions overriding broader ones (§4.1).
func (o *Object) TypedParams() restriction.Dict {
	chain := o.scopeChain()

	merged := restriction.Dict{}
	for _, anc := range chain {
		for k, v := range anc.Params {
			merged[k] = v
		}
	}

	return merged
}

func (o *Object) scopeChain() []*Object {
	if len(o.Composites) == 0 {
		return []*Object{o}
	}

	return append(o.Composites[0].scopeChain(), o)
}

// RestrictionFor returns the restriction string o imposes on peerSuffix, or
// "" if o has no opinion about that peer.
func (o *Object) RestrictionFor(peerSuffix string) string {
	return o.Restrictions[peerSuffix]
}

// VMSuffixes returns the vm suffixes listed in a composite dict's "vms"
// parameter (space-separated), sorted for deterministic iteration.
func VMSuffixes(params restriction.Dict) []string {
	return splitSorted(params["vms"])
}

// ImageSuffixes returns the image suffixes listed in a vm dict's "images"
// parameter.
func ImageSuffixes(params restriction.Dict) []string {
	return splitSorted(params["images"])
}

func splitSorted(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Fields(s)
	sort.Strings(parts)

	return parts
}
