package algebra

import "math"

// Mat3 is a row-major 3x3 matrix.
type Mat3 struct {
	M00, M01, M02 float64
	M10, M11, M12 float64
	M20, M21, M22 float64
}

func Identity() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Diag builds a diagonal matrix, typically a principal inertia tensor.
func Diag(d Vec3) Mat3 {
	return Mat3{
		d.X, 0, 0,
		0, d.Y, 0,
		0, 0, d.Z,
	}
}

// AxisAngle builds the rotation of angle radians about the unit axis
// (Rodrigues formula).
func AxisAngle(axis Vec3, angle float64) Mat3 {
	a := axis.Normalize()
	c := math.Cos(angle)
	s := math.Sin(angle)
	t := 1 - c
	return Mat3{
		t*a.X*a.X + c, t*a.X*a.Y - s*a.Z, t*a.X*a.Z + s*a.Y,
		t*a.X*a.Y + s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z - s*a.X,
		t*a.X*a.Z - s*a.Y, t*a.Y*a.Z + s*a.X, t*a.Z*a.Z + c,
	}
}

func RotX(angle float64) Mat3 { return AxisAngle(Vec3{X: 1}, angle) }
func RotY(angle float64) Mat3 { return AxisAngle(Vec3{Y: 1}, angle) }
func RotZ(angle float64) Mat3 { return AxisAngle(Vec3{Z: 1}, angle) }

func (m Mat3) Mul(n Mat3) Mat3 {
	return Mat3{
		m.M00*n.M00 + m.M01*n.M10 + m.M02*n.M20, m.M00*n.M01 + m.M01*n.M11 + m.M02*n.M21, m.M00*n.M02 + m.M01*n.M12 + m.M02*n.M22,
		m.M10*n.M00 + m.M11*n.M10 + m.M12*n.M20, m.M10*n.M01 + m.M11*n.M11 + m.M12*n.M21, m.M10*n.M02 + m.M11*n.M12 + m.M12*n.M22,
		m.M20*n.M00 + m.M21*n.M10 + m.M22*n.M20, m.M20*n.M01 + m.M21*n.M11 + m.M22*n.M21, m.M20*n.M02 + m.M21*n.M12 + m.M22*n.M22,
	}
}

func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m.M00*v.X + m.M01*v.Y + m.M02*v.Z,
		m.M10*v.X + m.M11*v.Y + m.M12*v.Z,
		m.M20*v.X + m.M21*v.Y + m.M22*v.Z,
	}
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m.M00, m.M10, m.M20,
		m.M01, m.M11, m.M21,
		m.M02, m.M12, m.M22,
	}
}

// TransposeMulVec computes Transpose().MulVec(v) without forming the
// transpose, the common case when mapping world vectors into a body frame.
func (m Mat3) TransposeMulVec(v Vec3) Vec3 {
	return Vec3{
		m.M00*v.X + m.M10*v.Y + m.M20*v.Z,
		m.M01*v.X + m.M11*v.Y + m.M21*v.Z,
		m.M02*v.X + m.M12*v.Y + m.M22*v.Z,
	}
}
