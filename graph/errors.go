package graph

// SimpleParseUnsupportedError is returned when a restriction dictionary
// requests the legacy single-parent parsing shortcut (§9 Open Question,
// SPEC_FULL §4 item 1): cartgraph implements only the advanced fan-in-aware
// path and refuses to silently emulate the simple one.
type SimpleParseUnsupportedError struct {
	Suffix string
}

func (e SimpleParseUnsupportedError) Error() string {
	return "get_parse=simple is not supported for suffix " + e.Suffix + "; advanced parsing is the only supported mode"
}
