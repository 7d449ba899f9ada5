package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix4MultiplyMatrices(t *testing.T) {
	identity := NewMatrix4().Identity()
	translate := NewMatrix4().MakeTranslation(1, 2, 3)

	var result Matrix4
	result.MultiplyMatrices(identity, translate)
	assert.Equal(t, *translate, result)
}

func TestMatrix4ComposeDecomposeRoundTrip(t *testing.T) {
	pos := &Vector3{X: 1, Y: -2, Z: 3}
	rot := NewQuaternion(0, 0, 0, 1)
	scale := &Vector3{X: 2, Y: 2, Z: 2}

	m := NewMatrix4().Compose(pos, rot, scale)

	var gotPos, gotScale Vector3
	var gotRot Quaternion
	m.Decompose(&gotPos, &gotRot, &gotScale)

	assert.InDelta(t, pos.X, gotPos.X, 1e-5)
	assert.InDelta(t, pos.Y, gotPos.Y, 1e-5)
	assert.InDelta(t, pos.Z, gotPos.Z, 1e-5)
	assert.InDelta(t, scale.X, gotScale.X, 1e-5)
	assert.InDelta(t, scale.Y, gotScale.Y, 1e-5)
	assert.InDelta(t, scale.Z, gotScale.Z, 1e-5)
}

func TestMatrix4MakeScaleThenSetPosition(t *testing.T) {
	m := NewMatrix4().MakeScale(2, 3, 4)
	m.SetPosition(&Vector3{X: 5, Y: 6, Z: 7})

	v := &Vector3{X: 1, Y: 1, Z: 1}
	v.ApplyMatrix4(m)

	assert.InDelta(t, 7, v.X, 1e-5)
	assert.InDelta(t, 9, v.Y, 1e-5)
	assert.InDelta(t, 11, v.Z, 1e-5)
}
