// Package factory provides a small generic registry used to instantiate modules
// from configuration. Modules are defined by a type string and a map of raw
// settings. Factories decode the settings into typed structs and return the
// concrete implementation.
//
// Solver backends and metrics sinks are both created this way:
//
//	solver:
//	  type: simplex
//	  conf:
//	    tolerance: 1e-9
package factory
