package fexpr

// Primitive and combinator constructors. Every one of these composes
// the fundamental ops (Const, X/Y/Z, Add/Sub/Mul, Min/Max, Neg/Abs,
// Translate) rather than adding dedicated node kinds, the way sdfx's
// sdf.Sphere3D/sdf.Box3D/sdf.Union3D are themselves thin composites
// over sdf.SDF3's primitive interface.
//
// These use squared distance (dist² - r²) rather than true Euclidean
// distance, avoiding a sqrt node entirely. The sign is identical to a
// true SDF (inside iff the point is closer than r), so in/out
// classification, Min/Max-based boolean composition, and the
// direction of the central-difference gradient are all unaffected;
// only the field's magnitude away from the surface differs from a
// true distance.

// Sphere returns a node for a sphere of radius r centered at center.
func (b *Builder) Sphere(center [3]float64, r float64) NodeID {
	dx := b.Sub(b.X(), b.Const(center[0]))
	dy := b.Sub(b.Y(), b.Const(center[1]))
	dz := b.Sub(b.Z(), b.Const(center[2]))
	sq := b.Add(b.Add(b.Mul(dx, dx), b.Mul(dy, dy)), b.Mul(dz, dz))
	return b.Sub(sq, b.Const(r*r))
}

// Box returns a node for an axis-aligned box centered at center with
// half-extents half, using the Chebyshev (max-of-axis-distances)
// approximation: f = max(|dx|-hx, |dy|-hy, |dz|-hz). This is not a
// true distance field away from the surface, but its sign is exact.
func (b *Builder) Box(center, half [3]float64) NodeID {
	dx := b.Abs(b.Sub(b.X(), b.Const(center[0])))
	dy := b.Abs(b.Sub(b.Y(), b.Const(center[1])))
	dz := b.Abs(b.Sub(b.Z(), b.Const(center[2])))
	fx := b.Sub(dx, b.Const(half[0]))
	fy := b.Sub(dy, b.Const(half[1]))
	fz := b.Sub(dz, b.Const(half[2]))
	return b.Max(b.Max(fx, fy), fz)
}

// HalfSpace returns a node that is negative below z = offset and
// positive above it.
func (b *Builder) HalfSpace(offset float64) NodeID {
	return b.Sub(b.Z(), b.Const(offset))
}

// Union returns the CSG union of a and b (the set where either is
// inside), implemented as Min.
func (b *Builder) Union(a, c NodeID) NodeID { return b.Min(a, c) }

// Intersect returns the CSG intersection of a and b (the set where
// both are inside), implemented as Max.
func (b *Builder) Intersect(a, c NodeID) NodeID { return b.Max(a, c) }

// Difference returns the CSG difference a minus b (inside a and
// outside b), implemented as Max(a, -b).
func (b *Builder) Difference(a, c NodeID) NodeID { return b.Max(a, b.Neg(c)) }
