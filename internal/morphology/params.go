package morphology

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config selects how a fresh Params is initialized and how counts are
// smoothed between EM iterations. The zero value is not useful; use
// DefaultConfig as a base.
type Config struct {
	SmoothingConst float64

	// MaxMorphLen bounds the length of every candidate morpheme, both in
	// the initial vocabulary and at decode time. Words longer than the
	// bound cannot parse as a single stem, which is what forces EM to
	// discover splits at all. Zero or negative means the default.
	MaxMorphLen int

	// UseNormalInit draws the raw pre-normalization emission mass from a
	// normal distribution (clipped at zero) instead of uniform mass.
	UseNormalInit bool
	NormalMean    float64
	NormalStddev  float64
	Seed          uint64

	// UseMorphLikeness biases the initial emission split between the stem
	// row and the affix rows by each substring's affix-likeness score.
	UseMorphLikeness bool
	Likeness         LikenessConfig
}

// defaultMaxMorphLen caps candidate morphemes at eight runes. Affixes in
// practice are far shorter; stems longer than this decode as a stem plus a
// residual affix rather than blowing up the substring vocabulary.
const defaultMaxMorphLen = 8

// DefaultConfig mirrors the training CLI defaults.
func DefaultConfig() Config {
	return Config{
		SmoothingConst:   2,
		MaxMorphLen:      defaultMaxMorphLen,
		NormalMean:       2,
		NormalStddev:     1,
		UseMorphLikeness: true,
		Likeness:         DefaultLikenessConfig(),
	}
}

// Params is the HMM parameter store: per-class emission probabilities over
// substrings, transition probabilities between grammar states, and the
// training word-count table. It is mutated only by Smooth between EM
// iterations and is read-only everywhere else.
//
// Each class has its own vocabulary: prefixes are proper word-initial
// substrings, suffixes proper word-final substrings, stems arbitrary
// substrings. Smoothing keeps every in-vocabulary probability nonzero;
// out-of-vocabulary substrings only matter during decoding, where they get
// a large constant log penalty instead of minus infinity.
type Params struct {
	Emissions      [NumClasses]map[string]float64
	Transitions    [NumStates][NumStates]float64
	Likeness       [NumClasses]map[string]float64
	WordCounts     map[string]int
	SmoothingConst float64
	MaxMorphLen    int
}

// NewEmptyParams returns a structurally valid store with no vocabulary.
// The persistence layer fills one of these in on load.
func NewEmptyParams(smoothingConst float64) *Params {
	p := &Params{
		WordCounts:     make(map[string]int),
		SmoothingConst: smoothingConst,
		MaxMorphLen:    defaultMaxMorphLen,
	}
	for c := 0; c < NumClasses; c++ {
		p.Emissions[c] = make(map[string]float64)
		p.Likeness[c] = make(map[string]float64)
	}
	return p
}

// NewParams builds an initialized store from a training word-count table.
// Every substring of every training word up to MaxMorphLen enters the stem
// row; proper word-initial substrings also enter the prefix row and proper
// word-final ones the suffix row. Rows are normalized after the raw mass
// assignment, and transitions start uniform over the grammar's legal edges.
func NewParams(wordCounts map[string]int, cfg Config) *Params {
	p := NewEmptyParams(cfg.SmoothingConst)
	if cfg.MaxMorphLen > 0 {
		p.MaxMorphLen = cfg.MaxMorphLen
	}
	for w, n := range wordCounts {
		p.WordCounts[w] = n
	}

	var likeness map[string]float64
	if cfg.UseMorphLikeness {
		likeness = EstimateLikeness(wordCounts, p.MaxMorphLen, cfg.Likeness)
	}

	var normal distuv.Normal
	if cfg.UseNormalInit {
		normal = distuv.Normal{
			Mu:    cfg.NormalMean,
			Sigma: cfg.NormalStddev,
			Src:   rand.NewSource(cfg.Seed),
		}
	}

	// Sorted word order keeps the normal draws, and therefore the whole
	// store, reproducible for a fixed seed.
	for _, word := range sortedWords(wordCounts) {
		runes := []rune(word)
		n := len(runes)
		for i := 0; i < n; i++ {
			for j := i + 1; j <= n && j-i <= p.MaxMorphLen; j++ {
				substr := string(runes[i:j])
				classes := make([]Class, 0, NumClasses)
				if i == 0 && j < n {
					classes = append(classes, Prefix)
				}
				classes = append(classes, Stem)
				if i > 0 && j == n {
					classes = append(classes, Suffix)
				}
				for _, class := range classes {
					if _, seen := p.Emissions[class][substr]; seen {
						continue
					}
					base := 1.0
					if cfg.UseNormalInit {
						if v := normal.Rand(); v > 0 {
							base = v
						} else {
							base = 0
						}
					}
					weight := 1.0
					if likeness != nil {
						weight = likeness[substr]
						if class == Stem {
							weight = 1 - weight
						}
						p.Likeness[class][substr] = weight
					}
					p.Emissions[class][substr] = base * weight
				}
			}
		}
	}

	for c := 0; c < NumClasses; c++ {
		normalizeRow(p.Emissions[c])
	}
	for from := State(0); from < NumStates; from++ {
		next := legalNext[from]
		for _, to := range next {
			p.Transitions[from][to] = 1 / float64(len(next))
		}
	}
	return p
}

// normalizeRow scales a row to sum to 1. Summation walks keys in sorted
// order so rounding is identical across runs. A row whose mass sampled to
// zero everywhere falls back to uniform so it stays a distribution.
func normalizeRow(row map[string]float64) {
	if len(row) == 0 {
		return
	}
	keys := sortedKeys(row)
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = row[k]
	}
	total := floats.Sum(vals)
	if total == 0 {
		uniform := 1 / float64(len(row))
		for k := range row {
			row[k] = uniform
		}
		return
	}
	for k := range row {
		row[k] /= total
	}
}

// smallLogProb is the log-space score of emitting a substring outside a
// class's vocabulary. It is finite, so a novel word can always fall back to
// a stem-only parse, but so costly that any all-in-vocabulary parse beats
// any parse that needs an out-of-vocabulary morpheme.
const smallLogProb = -1e4

// EmissionProb returns the probability of class c emitting substr, zero if
// substr is outside the class vocabulary.
func (p *Params) EmissionProb(c Class, substr string) float64 {
	return p.Emissions[c][substr]
}

// EmissionLogProb is the decoding-time view of EmissionProb: in-vocabulary
// substrings score log of their smoothed probability, everything else
// scores smallLogProb rather than minus infinity.
func (p *Params) EmissionLogProb(c Class, substr string) float64 {
	if prob, ok := p.Emissions[c][substr]; ok && prob > 0 {
		return math.Log(prob)
	}
	return smallLogProb
}

// TransitionProb returns the probability of moving from grammar state from
// to state to. Illegal edges are always zero.
func (p *Params) TransitionProb(from, to State) float64 {
	return p.Transitions[from][to]
}

// Smooth folds raw (possibly fractional, possibly zero) counts from an
// E-step into the store: additive smoothing with the configured constant,
// then row renormalization. Emission row vocabularies are fixed at
// initialization, so every row keeps summing to 1 over its vocabulary and
// no in-vocabulary probability ever reaches zero.
func (p *Params) Smooth(counts *Counts) {
	c := p.SmoothingConst
	for class := 0; class < NumClasses; class++ {
		row := p.Emissions[class]
		if len(row) == 0 {
			continue
		}
		// Sorted iteration keeps the denominator's rounding stable across
		// runs, which Train relies on for reproducible stores.
		keys := sortedKeys(row)
		var total float64
		for _, substr := range keys {
			total += counts.Emissions[class][substr]
		}
		denom := total + c*float64(len(row))
		for _, substr := range keys {
			row[substr] = (counts.Emissions[class][substr] + c) / denom
		}
	}

	for from := State(0); from < NumStates; from++ {
		next := legalNext[from]
		if len(next) == 0 {
			continue
		}
		var total float64
		for _, to := range next {
			total += counts.Transitions[from][to]
		}
		denom := total + c*float64(len(next))
		for _, to := range next {
			p.Transitions[from][to] = (counts.Transitions[from][to] + c) / denom
		}
	}
}

// Counts accumulates sufficient statistics for one E-step: expected (or,
// under hard EM, decoded) occurrences of each (class, substring) emission
// and each grammar transition. Workers each own one and the trainer sums
// them; addition is commutative so merge order cannot change the result.
type Counts struct {
	Emissions   [NumClasses]map[string]float64
	Transitions [NumStates][NumStates]float64
}

func NewCounts() *Counts {
	c := &Counts{}
	for i := 0; i < NumClasses; i++ {
		c.Emissions[i] = make(map[string]float64)
	}
	return c
}

func (c *Counts) addEmission(class Class, substr string, weight float64) {
	c.Emissions[class][substr] += weight
}

func (c *Counts) addTransition(from, to State, weight float64) {
	c.Transitions[from][to] += weight
}

// Add merges another partial count table into this one.
func (c *Counts) Add(other *Counts) {
	for class := 0; class < NumClasses; class++ {
		for substr, w := range other.Emissions[class] {
			c.Emissions[class][substr] += w
		}
	}
	for from := 0; from < NumStates; from++ {
		for to := 0; to < NumStates; to++ {
			c.Transitions[from][to] += other.Transitions[from][to]
		}
	}
}
