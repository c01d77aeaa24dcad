package restriction_test

import (
	"testing"

	"github.com/cartgraph/cartgraph/restriction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates() []restriction.Candidate {
	return []restriction.Candidate{
		{Dict: restriction.Dict{"shortname": "tutorial1.vm1.CentOS.8"}, Tags: []string{"tutorial1", "vm1.CentOS.8"}},
		{Dict: restriction.Dict{"shortname": "tutorial1.vm1.Win10"}, Tags: []string{"tutorial1", "vm1.Win10"}},
		{Dict: restriction.Dict{"shortname": "tutorial3.vm1.vm2"}, Tags: []string{"tutorial3", "vm1.vm2"}},
	}
}

func TestParseOnly(t *testing.T) {
	t.Parallel()

	adapter := restriction.NewLineAdapter()
	out, err := adapter.Parse("only tutorial1", candidates(), nil)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestParseOnlyThenNo(t *testing.T) {
	t.Parallel()

	adapter := restriction.NewLineAdapter()
	out, err := adapter.Parse("only tutorial1\nno Win10", candidates(), nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "tutorial1.vm1.CentOS.8", out[0]["shortname"])
}

func TestParseOverlayApplied(t *testing.T) {
	t.Parallel()

	adapter := restriction.NewLineAdapter()
	out, err := adapter.Parse("only tutorial1", candidates(), restriction.Dict{"extra": "1"})
	require.NoError(t, err)

	for _, d := range out {
		assert.Equal(t, "1", d["extra"])
	}
}

func TestParseEmptyProduct(t *testing.T) {
	t.Parallel()

	adapter := restriction.NewLineAdapter()
	_, err := adapter.Parse("only nonexistent", candidates(), nil)
	require.Error(t, err)

	var empty restriction.EmptyProductError
	require.ErrorAs(t, err, &empty)
}

func TestReparse(t *testing.T) {
	t.Parallel()

	adapter := restriction.NewLineAdapter()
	base, err := adapter.Parse("only tutorial1", candidates(), nil)
	require.NoError(t, err)

	tags := [][]string{{"vm1.CentOS.8"}, {"vm1.Win10"}}
	out, err := adapter.Reparse(base, tags, "no Win10")
	require.NoError(t, err)
	require.Len(t, out, 1)
}
