package object_test

import (
	"testing"

	"github.com/cartgraph/cartgraph/object"
	"github.com/cartgraph/cartgraph/restriction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vmCandidates() []restriction.Candidate {
	return []restriction.Candidate{
		{Dict: restriction.Dict{"variant": "CentOS.8"}, Tags: []string{"CentOS.8"}},
		{Dict: restriction.Dict{"variant": "Win10"}, Tags: []string{"Win10"}},
	}
}

func TestParseFlat(t *testing.T) {
	t.Parallel()

	p := object.NewParser()
	objs, err := p.ParseFlat("vm1", object.VM, "only CentOS", vmCandidates(), nil)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "vm1.CentOS.8", objs[0].Name())
	assert.Equal(t, object.VM, objs[0].Kind)
}

func TestParseFlatEmptyProduct(t *testing.T) {
	t.Parallel()

	p := object.NewParser()
	_, err := p.ParseFlat("vm1", object.VM, "only Solaris", vmCandidates(), nil)
	require.Error(t, err)
}

func TestTypedParamsInheritsThroughCompositeChain(t *testing.T) {
	t.Parallel()

	net := &object.Object{Suffix: "net1", Kind: object.Net, Params: restriction.Dict{"shared": "net", "override": "net"}}
	vm := &object.Object{Suffix: "vm1", Kind: object.VM, Params: restriction.Dict{"override": "vm"}}
	img := &object.Object{Suffix: "image1", Kind: object.Image, Params: restriction.Dict{"local": "img"}}

	net.AddComponent(vm)
	vm.AddComponent(img)

	typed := img.TypedParams()
	assert.Equal(t, "net", typed["shared"])
	assert.Equal(t, "vm", typed["override"])
	assert.Equal(t, "img", typed["local"])
}

func TestParseCompositeJoinsCompatibleComponents(t *testing.T) {
	t.Parallel()

	p := object.NewParser()

	vm1, err := p.ParseFlat("vm1", object.VM, "only CentOS", vmCandidates(), nil)
	require.NoError(t, err)

	components := map[string][]*object.Object{"vm1": vm1}

	netCandidates := []restriction.Candidate{
		{Dict: restriction.Dict{"variant": "default", "vms": "vm1"}, Tags: []string{"default"}},
	}

	nets, err := p.ParseComposite("net1", object.Net, "", components, netCandidates, nil)
	require.NoError(t, err)
	require.Len(t, nets, 1)
	require.Len(t, nets[0].Components, 1)
	assert.Equal(t, "vm1.CentOS.8", nets[0].Components[0].Name())
}

func TestParseCompositeIncompatibleRestriction(t *testing.T) {
	t.Parallel()

	p := object.NewParser()

	vm1, err := p.ParseFlat("vm1", object.VM, "only CentOS", vmCandidates(), nil)
	require.NoError(t, err)
	vm1[0].Restrictions["net1"] = "no default"

	components := map[string][]*object.Object{"vm1": vm1}
	netCandidates := []restriction.Candidate{
		{Dict: restriction.Dict{"variant": "default", "vms": "vm1"}, Tags: []string{"default"}},
	}

	_, err = p.ParseComposite("net1", object.Net, "", components, netCandidates, nil)
	require.Error(t, err)

	var incompat object.IncompatibleRestrictionError
	require.ErrorAs(t, err, &incompat)
}
