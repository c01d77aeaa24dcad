package object

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cartgraph/cartgraph/internal/errors"
	"github.com/cartgraph/cartgraph/restriction"
)

// Parser turns restriction-adapter output into Objects. It is the only
// place in cartgraph that knows how a restriction.Dict's variant-bearing
// keys (variant, restriction_<peer>, vms, images) map onto the Object
// model, keeping the rest of the core opaque to the matrix language.
type Parser struct {
	Adapter restriction.Adapter
}

// NewParser builds a Parser around the default line-oriented adapter.
func NewParser() *Parser {
	return &Parser{Adapter: restriction.NewLineAdapter()}
}

// ParseFlat produces objects carrying only the suffix-level variant axis,
// with no composition wired (§4.1 parse_flat).
func (p *Parser) ParseFlat(suffix string, kind Kind, restrictionText string, candidates []restriction.Candidate, overlay restriction.Dict) ([]*Object, error) {
	dicts, err := p.Adapter.Parse(restrictionText, candidates, overlay)
	if err != nil {
		return nil, err
	}

	out := make([]*Object, 0, len(dicts))
	for _, d := range dicts {
		out = append(out, fromDict(suffix, kind, d))
	}

	return out, nil
}

// ParseComposite joins pre-parsed component objects (keyed by peer suffix)
// into a single composite object, applying each side's restriction on the
// other, and fails with IncompatibleRestrictionError when the join is empty
// on a pre-selected component (§4.1 parse_composite).
func (p *Parser) ParseComposite(suffix string, kind Kind, restrictionText string, components map[string][]*Object, candidates []restriction.Candidate, overlay restriction.Dict) ([]*Object, error) {
	dicts, err := p.Adapter.Parse(restrictionText, candidates, overlay)
	if err != nil {
		return nil, err
	}

	out := make([]*Object, 0, len(dicts))

	for _, d := range dicts {
		obj := fromDict(suffix, kind, d)

		suffixes := make([]string, 0, len(components))
		for peer := range components {
			suffixes = append(suffixes, peer)
		}

		sort.Strings(suffixes)

		joined := true

		for _, peerSuffix := range suffixes {
			peerCandidates := components[peerSuffix]

			match := pickCompatible(obj, peerCandidates, peerSuffix)
			if match == nil {
				joined = false

				break
			}

			obj.AddComponent(match)
		}

		if !joined {
			if obj.RequireExistence {
				return nil, errors.WithStackTrace(IncompatibleRestrictionError{
					Suffix:      suffix,
					Kind:        kind,
					Restriction: restrictionText,
				})
			}

			continue
		}

		out = append(out, obj)
	}

	if len(out) == 0 {
		return nil, errors.WithStackTrace(IncompatibleRestrictionError{Suffix: suffix, Kind: kind, Restriction: restrictionText})
	}

	return out, nil
}

// pickCompatible returns the first peer candidate whose variant satisfies
// both obj's restriction on peerSuffix and the candidate's own restriction
// on obj's suffix.
func pickCompatible(obj *Object, peers []*Object, peerSuffix string) *Object {
	objRestriction := obj.RestrictionFor(peerSuffix)

	for _, peer := range peers {
		peerRestriction := peer.RestrictionFor(obj.Suffix)

		if objRestriction != "" && !matchesRestriction(peer, objRestriction) {
			continue
		}

		if peerRestriction != "" && !matchesRestriction(obj, peerRestriction) {
			continue
		}

		return peer
	}

	return nil
}

func matchesRestriction(o *Object, restrictionText string) bool {
	for _, line := range strings.Split(restrictionText, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}

		verb, token := fields[0], strings.Join(fields[1:], " ")
		matched := o.Variant == token || strings.Contains(o.Variant, token)

		switch verb {
		case "only":
			if !matched {
				return false
			}
		case "no":
			if matched {
				return false
			}
		}
	}

	return true
}

// ParseComponentsFor derives image objects from a vm (or vm objects from a
// net) by reading the parent's "images"/"vms" parameter and looking up each
// named suffix's candidate pool.
func (p *Parser) ParseComponentsFor(parent *Object, childKind Kind, pools map[string][]restriction.Candidate, restrictions map[string]string, overlay restriction.Dict) ([]*Object, error) {
	var names []string

	switch childKind {
	case Image:
		names = ImageSuffixes(parent.TypedParams())
	case VM:
		names = VMSuffixes(parent.TypedParams())
	default:
		return nil, errors.Errorf("object kind %s cannot be a component of %s", childKind, parent.Kind)
	}

	children := make([]*Object, 0, len(names))

	for _, name := range names {
		candidates, ok := pools[name]
		if !ok {
			return nil, errors.Errorf("no candidate pool registered for suffix %q", name)
		}

		objs, err := p.ParseFlat(name, childKind, restrictions[name], candidates, overlay)
		if err != nil {
			return nil, err
		}

		if len(objs) == 0 {
			return nil, errors.WithStackTrace(IncompatibleRestrictionError{Suffix: name, Kind: childKind})
		}

		child := objs[0]
		parent.AddComponent(child)
		children = append(children, child)
	}

	return children, nil
}

func fromDict(suffix string, kind Kind, d restriction.Dict) *Object {
	obj := &Object{
		Suffix:       suffix,
		Variant:      d["variant"],
		Kind:         kind,
		Params:       d,
		Restrictions: map[string]string{},
	}

	prefix := "restriction_"
	for k, v := range d {
		if strings.HasPrefix(k, prefix) {
			peer := strings.TrimPrefix(k, prefix)
			obj.Restrictions[peer] = v
		}
	}

	obj.Permanent = d["permanent_vm"] == "yes"
	obj.RequireExistence = d["require_existence"] == "yes"

	if obj.Variant == "" {
		obj.Variant = fmt.Sprintf("v%d", len(d))
	}

	return obj
}
