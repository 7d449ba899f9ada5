package collada

import (
	"strconv"
	"strings"

	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
	"github.com/assetforge/sceneforge/xmltree"
)

// buildNode recursively lowers one COLLADA <node> (and its transform
// stack, instance_geometry references and nested <node> children) into a
// scene.Node.
func buildNode(n *xmltree.Node, geomMeshes map[string][]int) (*scene.Node, error) {
	name := n.AttrOr("name", n.AttrOr("id", "node"))
	out := scene.NewNode(name)
	out.Matrix = composeTransformStack(n)

	for _, ig := range n.ChildrenNamed("instance_geometry") {
		url, _ := ig.Attr("url")
		if meshes, ok := geomMeshes[trimHash(url)]; ok {
			out.Meshes = append(out.Meshes, meshes...)
		}
	}

	for _, child := range n.ChildrenNamed("node") {
		c, err := buildNode(child, geomMeshes)
		if err != nil {
			return nil, err
		}
		out.AddChild(c)
	}
	return out, nil
}

// composeTransformStack folds a <node>'s ordered <matrix>/<translate>/
// <rotate>/<scale> children into one local Matrix4, applied in document
// order (COLLADA transforms compose left-to-right as written).
func composeTransformStack(n *xmltree.Node) math32.Matrix4 {
	var m math32.Matrix4
	m.Identity()
	for _, child := range n.Children {
		var step math32.Matrix4
		step.Identity()
		switch child.Name {
		case "matrix":
			v := parseFloats(child.Text)
			if len(v) == 16 {
				step.Set(
					v[0], v[1], v[2], v[3],
					v[4], v[5], v[6], v[7],
					v[8], v[9], v[10], v[11],
					v[12], v[13], v[14], v[15],
				)
			}
		case "translate":
			v := parseFloats(child.Text)
			if len(v) == 3 {
				step.MakeTranslation(v[0], v[1], v[2])
			}
		case "rotate":
			v := parseFloats(child.Text)
			if len(v) == 4 {
				axis := math32.Vector3{X: v[0], Y: v[1], Z: v[2]}
				step.MakeRotationAxis(&axis, math32.DegToRad(v[3]))
			}
		case "scale":
			v := parseFloats(child.Text)
			if len(v) == 3 {
				step.MakeScale(v[0], v[1], v[2])
			}
		default:
			continue
		}
		m.Multiply(&step)
	}
	return m
}

func parseFloats(text string) []float32 {
	fields := strings.Fields(text)
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil
		}
		out[i] = float32(v)
	}
	return out
}
