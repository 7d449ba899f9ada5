package xmltree

import (
	"strings"
	"testing"

	"github.com/assetforge/sceneforge/asserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBuildsTree(t *testing.T) {
	doc := `<amf unit="millimeter"><object id="1"><mesh><vertices><vertex><coordinates><x> 1.5 </x><y>2</y><z>3</z></coordinates></vertex></vertices></mesh></object></amf>`
	root, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "amf", root.Name)

	unit, ok := root.Attr("unit")
	require.True(t, ok)
	assert.Equal(t, "millimeter", unit)

	coords := root.Child("object").Child("mesh").Child("vertices").Child("vertex").Child("coordinates")
	require.NotNil(t, coords)
	x, err := coords.Child("x").TextFloat()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, x, 1e-6)
}

func TestParseMalformedReportsOffset(t *testing.T) {
	_, err := Parse(strings.NewReader(`<amf><object></amf>`))
	require.Error(t, err)
	k, ok := asserr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, asserr.MalformedInput, k)
	e, ok := err.(*asserr.Error)
	require.True(t, ok)
	assert.Greater(t, e.Offset, int64(0))
}

func TestAttrAccessorsAreLocaleIndependentAndTolerant(t *testing.T) {
	root, err := Parse(strings.NewReader(`<r a=" 3.25 " b="true" c="7"/>`))
	require.NoError(t, err)
	f, err := mustAttr(root, "a").Float()
	require.NoError(t, err)
	assert.InDelta(t, 3.25, f, 1e-6)

	b, err := mustAttr(root, "b").Bool()
	require.NoError(t, err)
	assert.True(t, b)

	i, err := mustAttr(root, "c").Int()
	require.NoError(t, err)
	assert.Equal(t, 7, i)
}

func mustAttr(n *Node, name string) Attr {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a
		}
	}
	panic("attr not found: " + name)
}

func TestChildrenNamedAndTextFields(t *testing.T) {
	root, err := Parse(strings.NewReader(`<r><p>1 2 3</p><p>4 5</p></r>`))
	require.NoError(t, err)
	ps := root.ChildrenNamed("p")
	require.Len(t, ps, 2)
	assert.Equal(t, []string{"1", "2", "3"}, ps[0].TextFields())
}
