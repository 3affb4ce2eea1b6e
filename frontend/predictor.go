package frontend

// BHTSize is the number of entries in the predictor's branch history
// table. PC bits [BHTSize-aligned] index into it; aliasing across distinct
// PCs is accepted, matching the reference pipeline simulator's bimodal
// BHT.
const BHTSize = 1024

// counter states, as a 2-bit saturating counter.
const (
	strongNotTaken uint8 = iota
	weakNotTaken
	weakTaken
	strongTaken
)

// Predictor is a 2-bit saturating-counter branch direction predictor keyed
// by PC, initialized to weakly-not-taken. It is a pure function of its
// table state: Predict never mutates, only Update (on a committed branch)
// does.
type Predictor struct {
	bht [BHTSize]uint8
}

// NewPredictor creates a Predictor with every entry weakly not-taken.
func NewPredictor() *Predictor {
	p := &Predictor{}
	for i := range p.bht {
		p.bht[i] = weakNotTaken
	}
	return p
}

func index(pc uint32) uint32 {
	return (pc >> 2) % BHTSize
}

// Predict returns the predicted direction for a branch at pc.
func (p *Predictor) Predict(pc uint32) bool {
	return p.bht[index(pc)] >= weakTaken
}

// Update adjusts the saturating counter for pc toward takenActual.
func (p *Predictor) Update(pc uint32, takenActual bool) {
	i := index(pc)
	if takenActual {
		if p.bht[i] < strongTaken {
			p.bht[i]++
		}
	} else {
		if p.bht[i] > strongNotTaken {
			p.bht[i]--
		}
	}
}
