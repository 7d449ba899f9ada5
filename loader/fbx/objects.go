package fbx

import (
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

// document is everything resolved from the "Objects" and "Connections"
// scopes, keyed by the 64-bit object id FBX assigns every element.
type document struct {
	objectClass map[int64]string // id -> "Geometry"/"Model"/"Material"/...
	geometries  map[int64]*node
	models      map[int64]*node
	materials   map[int64]*node

	// childToParents maps an object id to every id it is connected to via
	// an "OO" (object-object) connection, in document order. FBX models
	// parent-child scene hierarchy, geometry-to-model and material-to-model
	// bindings all through this single flat connection list.
	childToParents map[int64][]int64
	// propertyConnections records "OP" connections (object -> named
	// property on another object), used for animation curve binding.
	propertyConnections []opConnection
}

type opConnection struct {
	childID  int64
	parentID int64
	property string
}

func parseObjects(root *node) *document {
	doc := &document{
		objectClass:    make(map[int64]string),
		geometries:     make(map[int64]*node),
		models:         make(map[int64]*node),
		materials:      make(map[int64]*node),
		childToParents: make(map[int64][]int64),
	}

	objects := root.child("Objects")
	if objects != nil {
		for _, el := range objects.Children {
			if len(el.Props) == 0 {
				continue
			}
			id := el.Props[0].asInt()
			doc.objectClass[id] = el.Name
			switch el.Name {
			case "Geometry":
				doc.geometries[id] = el
			case "Model":
				doc.models[id] = el
			case "Material":
				doc.materials[id] = el
			}
		}
	}

	if conns := root.child("Connections"); conns != nil {
		for _, c := range conns.childrenNamed("C") {
			if len(c.Props) < 3 {
				continue
			}
			kind := c.Props[0].Str
			childID := c.Props[1].asInt()
			parentID := c.Props[2].asInt()
			switch kind {
			case "OO":
				doc.childToParents[childID] = append(doc.childToParents[childID], parentID)
			case "OP":
				if len(c.Props) >= 4 {
					doc.propertyConnections = append(doc.propertyConnections, opConnection{childID: childID, parentID: parentID, property: c.Props[3].Str})
				}
			}
		}
	}
	return doc
}

// properties70 reads a scope's "Properties70" child into name-keyed
// property records (each P entry is [name, dataType, label, flags, values...]).
func properties70(el *node) map[string][]property {
	out := make(map[string][]property)
	p70 := el.child("Properties70")
	if p70 == nil {
		return out
	}
	for _, p := range p70.childrenNamed("P") {
		if len(p.Props) < 1 {
			continue
		}
		name := p.Props[0].Str
		if len(p.Props) > 4 {
			out[name] = p.Props[4:]
		} else {
			out[name] = nil
		}
	}
	return out
}

func vec3Property(props map[string][]property, name string, def math32.Vector3) math32.Vector3 {
	v, ok := props[name]
	if !ok || len(v) < 3 {
		return def
	}
	return math32.Vector3{X: float32(v[0].asFloat()), Y: float32(v[1].asFloat()), Z: float32(v[2].asFloat())}
}

// lowerModel builds one scene.Node for a "Model" object, applying its
// Lcl Translation/Lcl Rotation/Lcl Scaling local transform. Rotation is
// interpreted as XYZ Euler angles in degrees, the FBX default rotation
// order; "RotationOrder" values other than the default are not modelled.
func lowerModel(el *node) *scene.Node {
	name, _ := splitFbxName(propOr(el, 1, ""))
	out := scene.NewNode(name)

	props := properties70(el)
	translation := vec3Property(props, "Lcl Translation", math32.Vector3{})
	rotation := vec3Property(props, "Lcl Rotation", math32.Vector3{})
	scale := vec3Property(props, "Lcl Scaling", math32.Vector3{X: 1, Y: 1, Z: 1})

	var m math32.Matrix4
	m.Identity()
	var step math32.Matrix4
	step.Identity()
	step.MakeTranslation(translation.X, translation.Y, translation.Z)
	m.Multiply(&step)

	rx := math32.DegToRad(rotation.X)
	ry := math32.DegToRad(rotation.Y)
	rz := math32.DegToRad(rotation.Z)
	var rotM math32.Matrix4
	rotM.MakeRotationFromEuler(&math32.Vector3{X: rx, Y: ry, Z: rz})
	m.Multiply(&rotM)

	var scaleM math32.Matrix4
	scaleM.Identity()
	scaleM.MakeScale(scale.X, scale.Y, scale.Z)
	m.Multiply(&scaleM)

	out.Matrix = m
	return out
}

func propOr(el *node, i int, def string) string {
	if i < len(el.Props) && el.Props[i].Code == 'S' {
		return el.Props[i].Str
	}
	return def
}
