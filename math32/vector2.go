// Copyright 2016 The G3N Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math32

// Vector2 is a 2D vector/point with X and Y components, used by the
// codecs that carry a second UV coordinate set before it is folded into
// a Vector3 with a zero Z (see loader/collada's toVector3s).
type Vector2 struct {
	X float32
	Y float32
}
