package vsm

import "strconv"

// Vector3 is a position in scene space.
type Vector3 struct {
	X, Y, Z float64
}

// Vec3 is shorthand for Vector3{x, y, z}.
func Vec3(x, y, z float64) Vector3 { return Vector3{X: x, Y: y, Z: z} }

func (v Vector3) String() string {
	return "(" + strconv.FormatFloat(v.X, 'g', -1, 64) +
		", " + strconv.FormatFloat(v.Y, 'g', -1, 64) +
		", " + strconv.FormatFloat(v.Z, 'g', -1, 64) + ")"
}
