package genome

import (
	"errors"
	"fmt"
	"math/rand"
)

var ErrInvalidProtein = errors.New("invalid protein symbol")

// Protein is the atomic unit of the encoding. The zero value is A.
type Protein uint8

const (
	A Protein = iota
	C
	G
	T
)

// ProteinCount is the size of the protein alphabet.
const ProteinCount = 4

var proteins = [ProteinCount]Protein{A, C, G, T}

// Proteins returns the alphabet in ordinal order.
func Proteins() [ProteinCount]Protein {
	return proteins
}

// RandomProtein draws a protein uniformly from the alphabet.
func RandomProtein(rng *rand.Rand) Protein {
	return proteins[rng.Intn(ProteinCount)]
}

// RandomProteinExcept draws uniformly from the three symbols other than p.
func RandomProteinExcept(rng *rand.Rand, p Protein) Protein {
	idx := rng.Intn(ProteinCount - 1)
	if idx >= int(p.Ordinal()) {
		idx++
	}
	return proteins[idx]
}

// Ordinal is the position used for merge comparisons: A < C < G < T.
func (p Protein) Ordinal() uint8 {
	return uint8(p)
}

// Value is the score contribution of the symbol. It intentionally differs
// from Ordinal: A=0, T=1, G=2, C=3.
func (p Protein) Value() uint8 {
	switch p {
	case A:
		return 0
	case T:
		return 1
	case G:
		return 2
	case C:
		return 3
	default:
		return 0
	}
}

// Compare orders proteins by ordinal and returns -1, 0 or 1.
func (p Protein) Compare(other Protein) int {
	switch {
	case p.Ordinal() < other.Ordinal():
		return -1
	case p.Ordinal() > other.Ordinal():
		return 1
	default:
		return 0
	}
}

func (p Protein) Valid() bool {
	return p < ProteinCount
}

func (p Protein) String() string {
	switch p {
	case A:
		return "A"
	case C:
		return "C"
	case G:
		return "G"
	case T:
		return "T"
	default:
		return fmt.Sprintf("Protein(%d)", uint8(p))
	}
}

// ParseProtein maps a symbol character back to its protein.
func ParseProtein(c byte) (Protein, error) {
	switch c {
	case 'A':
		return A, nil
	case 'C':
		return C, nil
	case 'G':
		return G, nil
	case 'T':
		return T, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidProtein, c)
	}
}

func (p Protein) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProtein, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Protein) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidProtein, text)
	}
	parsed, err := ParseProtein(text[0])
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
