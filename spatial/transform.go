package spatial

import "github.com/go-gl/mathgl/mgl64"

// Transform represents the pose of one frame relative to another: R carries
// the child frame's axes expressed in the parent frame, P locates the child
// origin from the parent origin, in the parent frame.
type Transform struct {
	R mgl64.Mat3
	P mgl64.Vec3
}

// Identity creates an identity transform
func Identity() Transform {
	return Transform{R: mgl64.Ident3()}
}

// Compose chains two transforms: if x is X_GB and y is X_BA, the result is
// X_GA. Rotations multiply; y's translation is rotated into x's parent frame
// before adding x's own offset.
func (x Transform) Compose(y Transform) Transform {
	return Transform{
		R: x.R.Mul3(y.R),
		P: x.P.Add(x.R.Mul3x1(y.P)),
	}
}

// Inverse reverses the transform. The inverse rotation is the transpose.
func (x Transform) Inverse() Transform {
	rt := x.R.Transpose()
	return Transform{
		R: rt,
		P: rt.Mul3x1(x.P).Mul(-1),
	}
}

// Apply maps a point given in the child frame into the parent frame.
func (x Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return x.R.Mul3x1(p).Add(x.P)
}

// InvApply maps a point given in the parent frame into the child frame.
func (x Transform) InvApply(p mgl64.Vec3) mgl64.Vec3 {
	return x.R.Transpose().Mul3x1(p.Sub(x.P))
}

// Rotate re-expresses a vector from the child frame into the parent frame.
// Vectors have no origin, so the translation does not participate.
func (x Transform) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return x.R.Mul3x1(v)
}

// InvRotate re-expresses a vector from the parent frame into the child frame.
func (x Transform) InvRotate(v mgl64.Vec3) mgl64.Vec3 {
	return x.R.Transpose().Mul3x1(v)
}
