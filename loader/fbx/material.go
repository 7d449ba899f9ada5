package fbx

import (
	"github.com/assetforge/sceneforge/math32"
	"github.com/assetforge/sceneforge/scene"
)

// lowerMaterial builds one scene.Material from a "Material" object's
// Properties70 diffuse colour/factor, the common subset every FBX
// material (Lambert or Phong) carries.
func lowerMaterial(el *node) *scene.Material {
	name, _ := splitFbxName(propOr(el, 1, ""))
	mat := scene.NewMaterial(name)

	props := properties70(el)
	diffuse := vec3Property(props, "DiffuseColor", math32.Vector3{X: 0.8, Y: 0.8, Z: 0.8})
	factor := 1.0
	if f, ok := props["DiffuseFactor"]; ok && len(f) > 0 {
		factor = f[0].asFloat()
	}
	mat.SetProperty("diffuse", scene.Color4Property(math32.Vector4{
		X: diffuse.X * float32(factor), Y: diffuse.Y * float32(factor), Z: diffuse.Z * float32(factor), W: 1,
	}))
	return mat
}
