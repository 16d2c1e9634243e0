package sim

import (
	"fmt"
	"math"
	"math/cmplx"

	qir "github.com/wippyai/qir-runtime"
)

// matrix is a single-qubit unitary in row-major order.
type matrix [2][2]complex128

var (
	hadamard = matrix{
		{complex(math.Sqrt2/2, 0), complex(math.Sqrt2/2, 0)},
		{complex(math.Sqrt2/2, 0), complex(-math.Sqrt2/2, 0)},
	}
	pauliX = matrix{{0, 1}, {1, 0}}
	pauliY = matrix{{0, -1i}, {1i, 0}}
	pauliZ = matrix{{1, 0}, {0, -1}}
)

func expi(theta float64) complex128 {
	return cmplx.Exp(complex(0, theta))
}

func phase(theta float64) matrix {
	return matrix{{1, 0}, {0, expi(theta)}}
}

func rx(theta float64) matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(0, -math.Sin(theta/2))
	return matrix{{c, s}, {s, c}}
}

func ry(theta float64) matrix {
	c, s := complex(math.Cos(theta/2), 0), complex(math.Sin(theta/2), 0)
	return matrix{{c, -s}, {s, c}}
}

func rz(theta float64) matrix {
	return matrix{{expi(-theta / 2), 0}, {0, expi(theta / 2)}}
}

func (s *Simulator) apply1(q qir.Qubit, m matrix) error {
	return s.controlled(m, q)
}

// controlled applies m to target on the basis states where every control
// qubit is |1>.
func (s *Simulator) controlled(m matrix, target qir.Qubit, controls ...qir.Qubit) error {
	tbit, err := s.bit(target)
	if err != nil {
		return err
	}
	var mask int
	for _, c := range controls {
		cbit, err := s.bit(c)
		if err != nil {
			return err
		}
		if cbit == tbit || mask&cbit != 0 {
			return fmt.Errorf("%s used more than once in one gate", c)
		}
		mask |= cbit
	}

	for i := range s.state {
		if i&tbit != 0 || i&mask != mask {
			continue
		}
		j := i | tbit
		a0, a1 := s.state[i], s.state[j]
		s.state[i] = m[0][0]*a0 + m[0][1]*a1
		s.state[j] = m[1][0]*a0 + m[1][1]*a1
	}
	s.gates++
	return nil
}
