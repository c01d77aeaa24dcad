package cli

import (
	"errors"

	"github.com/cartgraph/cartgraph/graph"
	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
)

// isConfigError reports whether err belongs to the configuration-error
// family (§7): an empty product, an incompatible object composition, or an
// unsupported get_parse=simple request. These exit 2; everything else
// (traversal-fatal errors, test failures surfaced as Go errors) exits 1. A
// malformed restriction line is reported as an untyped error and is not
// recognised here, so it exits 1.
func isConfigError(err error) bool {
	var (
		empty        restriction.EmptyProductError
		incompatible object.IncompatibleRestrictionError
		simpleParse  graph.SimpleParseUnsupportedError
	)

	return errors.As(err, &empty) || errors.As(err, &incompatible) || errors.As(err, &simpleParse)
}
