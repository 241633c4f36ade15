package filter

import "gonum.org/v1/gonum/mat"

// Filter is a recursive state estimator driven by a process model and measurements.
type Filter interface {
	// Predict advances the filter state by dt using the process model
	Predict(ProcessModel, float64) (Estimate, error)
	// Update corrects the filter state using a measurement
	Update(*Measurement) (Estimate, error)
}

// ProcessModel advances a state sample forward in time.
// Implementations must be stateless across calls except for their noise.
type ProcessModel interface {
	// Predict propagates state x forward by dt seconds
	Predict(x mat.Vector, dt float64) (mat.Vector, error)
	// Noise returns process noise covariance Q which is added after the transform
	Noise() mat.Symmetric
}

// MeasurementModel maps a state sample into measurement space.
type MeasurementModel interface {
	// Dim returns the dimension of the measurement space
	Dim() int
	// Observe maps state x into measurement space
	Observe(x mat.Vector) (mat.Vector, error)
	// Noise returns measurement noise covariance R
	Noise() mat.Symmetric
	// Ops returns operators used to average and subtract measurements
	Ops() Operators
}

// Operators compute the weighted mean of a set of points stored in matrix
// columns and the difference between two points. Spaces which contain
// circular quantities must provide their own implementation.
type Operators interface {
	// Mean returns the weighted mean of the columns of points
	Mean(points mat.Matrix, weights []float64) *mat.VecDense
	// Diff returns a - b
	Diff(a, b mat.Vector) *mat.VecDense
}

// Normalizer is implemented by Operators which can bring a point
// back into its canonical range, e.g. wrap angles.
type Normalizer interface {
	// Normalize normalizes x in place
	Normalize(x *mat.VecDense)
}

// Measurement is an observed vector together with the model which explains it.
type Measurement struct {
	// Value is the observed measurement
	Value mat.Vector
	// Model maps state into the space of Value
	Model MeasurementModel
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
}
