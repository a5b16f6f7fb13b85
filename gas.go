package xrayprep

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultGasFraction is the fraction a newly added gas starts with.
const DefaultGasFraction = 0.1

// minGasSum keeps AddGas from dividing by a vanishing total.
const minGasSum = 0.001

// GasEntry is one named component of a gas fill (e.g. an ion chamber).
type GasEntry struct {
	Name     string
	Fraction float64
}

// GasMixture is a list of gas components whose fractions sum to 1.
//
// The rebalancing functions never modify their argument; they return a new
// slice, so a mixture can be shared by several holders without aliasing.
type GasMixture []GasEntry

// Sum returns the total of all fractions.
func (m GasMixture) Sum() float64 {
	return floats.Sum(m.fractions())
}

// Clone returns an independent copy.
func (m GasMixture) Clone() GasMixture {
	if m == nil {
		return nil
	}
	out := make(GasMixture, len(m))
	copy(out, m)
	return out
}

func (m GasMixture) fractions() []float64 {
	fs := make([]float64, len(m))
	for i, e := range m {
		fs[i] = e.Fraction
	}
	return fs
}

func (m GasMixture) withFractions(fs []float64) GasMixture {
	out := m.Clone()
	for i := range out {
		out[i].Fraction = fs[i]
	}
	return out
}

// AddGas appends name with the given fraction and scales the existing
// entries down to make room. Fractions outside (0, 1) are rejected and the
// mixture is returned unchanged. Adding to an empty mixture yields a single
// entry at fraction 1.
func AddGas(m GasMixture, name string, fraction float64) GasMixture {
	if math.IsNaN(fraction) || fraction <= 0 || fraction >= 1 {
		return m.Clone()
	}
	if len(m) == 0 {
		return GasMixture{{Name: name, Fraction: 1}}
	}

	fs := m.fractions()
	floats.Scale((1-fraction)/math.Max(floats.Sum(fs), minGasSum), fs)

	return append(m.withFractions(fs), GasEntry{Name: name, Fraction: fraction})
}

// RemoveGas drops the entry at index and spreads its fraction over the
// remaining entries in proportion to their current fractions. When the
// remaining entries are all zero the first one takes the whole mixture.
func RemoveGas(m GasMixture, index int) GasMixture {
	if index < 0 || index >= len(m) {
		return m.Clone()
	}

	removed := m[index].Fraction
	rest := make(GasMixture, 0, len(m)-1)
	rest = append(rest, m[:index]...)
	rest = append(rest, m[index+1:]...)
	if len(rest) == 0 {
		return rest
	}

	fs := rest.fractions()
	remaining := floats.Sum(fs)
	if remaining <= 0 {
		for i := range fs {
			fs[i] = 0
		}
		fs[0] = 1
		return rest.withFractions(fs)
	}

	floats.Scale((remaining+removed)/remaining, fs)
	return rest.withFractions(fs)
}

// UpdateGas sets the entry at index to fraction (clamped to [0, 1]) and
// rescales every other entry proportionally so the total stays 1. If the
// other entries are all zero the remainder is split equally between them.
// A single-entry mixture is always 1.
func UpdateGas(m GasMixture, index int, fraction float64) GasMixture {
	if index < 0 || index >= len(m) || math.IsNaN(fraction) {
		return m.Clone()
	}
	next := math.Min(math.Max(fraction, 0), 1)

	fs := m.fractions()
	if len(fs) == 1 {
		fs[0] = 1
		return m.withFractions(fs)
	}

	others := 0.0
	for i, f := range fs {
		if i != index {
			others += f
		}
	}
	remainder := 1 - next
	for i := range fs {
		if i == index {
			continue
		}
		if others > 0 {
			fs[i] *= remainder / others
		} else {
			fs[i] = remainder / float64(len(fs)-1)
		}
	}
	fs[index] = next

	return m.withFractions(fs)
}
