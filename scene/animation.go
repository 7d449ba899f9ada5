package scene

import "github.com/assetforge/sceneforge/math32"

// WrapBehavior is the pre/post animation wrap mode.
type WrapBehavior int

const (
	WrapDefault WrapBehavior = iota
	WrapConstant
	WrapLinear
	WrapBehaviorRepeat
)

// Vector3Key is a (time, vec3) keyframe, used for position and scale.
type Vector3Key struct {
	Time  float64
	Value math32.Vector3
}

// QuatKey is a (time, quaternion) keyframe.
type QuatKey struct {
	Time  float64
	Value math32.Quaternion
}

// Channel animates one named node across an Animation's duration. Key
// times within each stream must be non-decreasing (invariant 8).
type Channel struct {
	NodeName      string
	PositionKeys  []Vector3Key
	RotationKeys  []QuatKey
	ScaleKeys     []Vector3Key
	PreState      WrapBehavior
	PostState     WrapBehavior
}

// Animation is a named, ticked keyframe animation over a set of node
// channels.
type Animation struct {
	Name            string
	DurationTicks   float64
	TicksPerSecond  float64
	Channels        []Channel
}

// NewAnimation creates an empty, named animation.
func NewAnimation(name string, ticksPerSecond float64) *Animation {
	return &Animation{Name: name, TicksPerSecond: ticksPerSecond}
}

// AddChannel appends a channel and returns its index.
func (a *Animation) AddChannel(c Channel) int {
	a.Channels = append(a.Channels, c)
	return len(a.Channels) - 1
}

// monotonic reports whether times is non-decreasing.
func monotonicF64(times []float64) bool {
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return false
		}
	}
	return true
}
