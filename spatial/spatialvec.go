package spatial

import "github.com/go-gl/mathgl/mgl64"

// SpatialVec pairs the angular and linear parts of a frame's velocity or
// acceleration. Both parts are expressed in the same frame, which the caller
// tracks.
type SpatialVec struct {
	Angular mgl64.Vec3
	Linear  mgl64.Vec3
}

func (v SpatialVec) Add(w SpatialVec) SpatialVec {
	return SpatialVec{
		Angular: v.Angular.Add(w.Angular),
		Linear:  v.Linear.Add(w.Linear),
	}
}

func (v SpatialVec) Sub(w SpatialVec) SpatialVec {
	return SpatialVec{
		Angular: v.Angular.Sub(w.Angular),
		Linear:  v.Linear.Sub(w.Linear),
	}
}

func (v SpatialVec) Scale(c float64) SpatialVec {
	return SpatialVec{
		Angular: v.Angular.Mul(c),
		Linear:  v.Linear.Mul(c),
	}
}

// Reexpress rotates both parts into another frame, r being the rotation that
// carries the current expressed-in frame's axes into the target frame.
func (v SpatialVec) Reexpress(r mgl64.Mat3) SpatialVec {
	return SpatialVec{
		Angular: r.Mul3x1(v.Angular),
		Linear:  r.Mul3x1(v.Linear),
	}
}
