package tuner

import (
	"fmt"
	"math"
	"strings"
)

// Reference pitch limits for A4.
const (
	DefaultReference = 440.0
	MinReference     = 427.0
	MaxReference     = 453.0
)

// Temperament is an equal temperament given by its number of steps per
// octave.
type Temperament int

// Supported temperaments.
const (
	TET12 Temperament = 12
	TET19 Temperament = 19
	TET24 Temperament = 24
	TET31 Temperament = 31
	TET53 Temperament = 53
)

// Temperaments lists the supported temperaments in menu order.
var Temperaments = []Temperament{TET12, TET19, TET24, TET31, TET53}

var names12 = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// ParseTemperament parses names such as "12-TET" or "31-tet".
func ParseTemperament(s string) (Temperament, error) {
	for _, t := range Temperaments {
		if strings.EqualFold(strings.TrimSpace(s), t.String()) {
			return t, nil
		}
	}

	return 0, fmt.Errorf("tuner: unknown temperament %q", s)
}

// String returns the name in "N-TET" form.
func (t Temperament) String() string {
	return fmt.Sprintf("%d-TET", int(t))
}

// Steps returns the number of steps per octave.
func (t Temperament) Steps() int { return int(t) }

// Note is a frequency placed on a temperament's grid.
type Note struct {
	Temperament Temperament
	// Steps from the reference pitch A4.
	Steps int
	// Octave in scientific pitch notation; C4 starts octave 4.
	Octave int
	// Index within the octave, counted from C.
	Index int
	// Cents from the nearest step, in (-600/N, 600/N].
	Cents float64
	// Frequency of the nearest step.
	TargetHz float64
}

// Name returns a readable note name. 12-TET uses letter names, 24-TET adds
// "+" for quarter-tone sharps, other temperaments print index/steps.
func (n Note) Name() string {
	switch n.Temperament {
	case TET12:
		return fmt.Sprintf("%s%d", names12[n.Index], n.Octave)
	case TET24:
		suffix := ""
		if n.Index%2 == 1 {
			suffix = "+"
		}

		return fmt.Sprintf("%s%d%s", names12[n.Index/2], n.Octave, suffix)
	default:
		return fmt.Sprintf("%d/%d:%d", n.Index, n.Temperament.Steps(), n.Octave)
	}
}

// cOffset is the number of steps from C up to A within one octave.
func (t Temperament) cOffset() int {
	return int(math.Round(9 * float64(t) / 12))
}

// Note places freqHz on the grid tuned to reference. It fails for
// non-positive frequencies, unsupported temperaments or a reference outside
// [MinReference, MaxReference].
func (t Temperament) Note(freqHz, reference float64) (Note, error) {
	if t <= 0 || t.Steps() > 1200 {
		return Note{}, fmt.Errorf("tuner: invalid temperament %d", int(t))
	}

	if !(reference >= MinReference && reference <= MaxReference) {
		return Note{}, fmt.Errorf("tuner: reference %v outside [%v, %v]", reference, MinReference, MaxReference)
	}

	if !(freqHz > 0) || math.IsInf(freqHz, 0) {
		return Note{}, fmt.Errorf("tuner: frequency must be > 0: %v", freqHz)
	}

	n := float64(t)
	exact := n * math.Log2(freqHz/reference)
	steps := int(math.Round(exact))

	fromC := steps + t.cOffset()
	octave := 4 + floorDiv(fromC, t.Steps())
	index := fromC - (octave-4)*t.Steps()

	return Note{
		Temperament: t,
		Steps:       steps,
		Octave:      octave,
		Index:       index,
		Cents:       (exact - float64(steps)) * 1200 / n,
		TargetHz:    reference * math.Exp2(float64(steps)/n),
	}, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}
