package utils

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// NormType defines the vector norm used to measure the distance between two feature vectors.
type NormType int

const (
	// NormL2 is the euclidean norm.
	NormL2 NormType = iota
	// NormL1 is the sum of absolute differences.
	NormL1
	// NormLInf is the largest absolute difference.
	NormLInf
)

// String returns the name of the norm.
func (n NormType) String() string {
	switch n {
	case NormL1:
		return "L1"
	case NormL2:
		return "L2"
	case NormLInf:
		return "Linf"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (n NormType) MarshalText() ([]byte, error) {
	if n < NormL2 || n > NormLInf {
		return nil, errors.Errorf("unknown norm type %d", int(n))
	}
	return []byte(n.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *NormType) UnmarshalText(text []byte) error {
	norm, err := NormTypeFromString(string(text))
	if err != nil {
		return err
	}
	*n = norm
	return nil
}

// NormTypeFromString parses "L1", "L2" or "Linf" (case insensitive).
func NormTypeFromString(s string) (NormType, error) {
	switch strings.ToLower(s) {
	case "l1":
		return NormL1, nil
	case "l2", "":
		return NormL2, nil
	case "linf", "l_inf", "max":
		return NormLInf, nil
	default:
		return NormL2, errors.Errorf("unknown norm type %q", s)
	}
}

// Order returns the gonum floats.Norm order for n.
func (n NormType) Order() float64 {
	switch n {
	case NormL1:
		return 1
	case NormLInf:
		return math.Inf(1)
	default:
		return 2
	}
}

// VectorDistance computes the distance between two vectors under the given norm.
func VectorDistance(p1, p2 []float64, norm NormType) (float64, error) {
	if len(p1) != len(p2) {
		return -1, errors.Errorf("must have same length, got %d and %d", len(p1), len(p2))
	}
	return floats.Distance(p1, p2, norm.Order()), nil
}

// VectorNorm computes the length of v under the given norm.
func VectorNorm(v []float64, norm NormType) float64 {
	return floats.Norm(v, norm.Order())
}
