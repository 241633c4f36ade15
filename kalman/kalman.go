// Package kalman defines Kalman filter contracts.
package kalman

import (
	filter "github.com/milosgajdos/go-odom"
	"gonum.org/v1/gonum/mat"
)

// Kalman is Kalman Filter which owns its state estimate
type Kalman interface {
	// filter.Filter is dynamical system filter
	filter.Filter
	// Forecast predicts the state without modifying the filter
	Forecast(filter.ProcessModel, float64) (filter.Estimate, error)
	// State returns Kalman filter state mean
	State() mat.Vector
	// Cov returns Kalman filter state covariance
	Cov() mat.Symmetric
	// Gain returns Kalman gain of the last update
	Gain() mat.Matrix
	// Innovation returns the measurement residual of the last update
	Innovation() mat.Vector
}

// Rollback is implemented by filters whose state can be saved and restored.
type Rollback interface {
	// Snapshot returns a copy of the current state estimate
	Snapshot() filter.Estimate
	// Restore replaces the state estimate with e
	Restore(e filter.Estimate) error
}
