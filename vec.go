package flock

import "math"

// MaxDimensions is the highest dimensionality a flock can have.
const MaxDimensions = 3

// A Vec is a point or a vector in flock space.
// Axes beyond the dimensionality of the flock are held at zero.
type Vec [MaxDimensions]float64

// V returns a vector from up to three components.
func V(c ...float64) Vec {
	var v Vec
	copy(v[:], c)
	return v
}

// Add returns u+v.
func (u Vec) Add(v Vec) Vec {
	return Vec{u[0] + v[0], u[1] + v[1], u[2] + v[2]}
}

// Sub returns u-v.
func (u Vec) Sub(v Vec) Vec {
	return Vec{u[0] - v[0], u[1] - v[1], u[2] - v[2]}
}

// Scale returns k*u.
func (u Vec) Scale(k float64) Vec {
	return Vec{k * u[0], k * u[1], k * u[2]}
}

// Dot returns the scalar product of u and v.
func (u Vec) Dot(v Vec) float64 {
	return u[0]*v[0] + u[1]*v[1] + u[2]*v[2]
}

// Norm returns the Euclidean length of u.
func (u Vec) Norm() float64 {
	return math.Sqrt(u.Dot(u))
}

// Dist returns the Euclidean distance between u and v
// computed over the first dims axes only.
func (u Vec) Dist(v Vec, dims int) float64 {
	var s float64
	for i := 0; i < dims; i++ {
		d := u[i] - v[i]
		s += d * d
	}
	return math.Sqrt(s)
}
