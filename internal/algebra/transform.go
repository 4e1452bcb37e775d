package algebra

// Transform is a rigid-body transform: rotation followed by translation.
type Transform struct {
	R Mat3
	P Vec3
}

func IdentityTransform() Transform {
	return Transform{R: Identity()}
}

// Apply maps a point from the local frame into the parent frame.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.R.MulVec(p).Add(t.P)
}

// ApplyVec rotates a direction without translating it.
func (t Transform) ApplyVec(v Vec3) Vec3 {
	return t.R.MulVec(v)
}

func (t Transform) Mul(u Transform) Transform {
	return Transform{
		R: t.R.Mul(u.R),
		P: t.R.MulVec(u.P).Add(t.P),
	}
}

func (t Transform) Inverse() Transform {
	rt := t.R.Transpose()
	return Transform{
		R: rt,
		P: rt.MulVec(t.P).Neg(),
	}
}
