package morphology

import (
	"errors"
	"fmt"
	"math"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrEmptyWord is returned when an empty string is passed to segmentation.
// The grammar requires exactly one non-empty stem, so there is no legal
// answer to give.
var ErrEmptyWord = errors.New("cannot segment an empty word")

// ErrNoSegmentation is returned when no legal path has nonzero probability.
// Only a degenerate store (e.g. trained on an empty corpus) can cause this.
var ErrNoSegmentation = errors.New("no legal segmentation under current parameters")

// segmentCacheSize bounds the decoded-word cache. Eviction only costs a
// recompute; results are identical either way.
const segmentCacheSize = 100_000

type segment struct {
	substr string
	class  Class
}

// Segmentor finds the highest-likelihood prefix*-stem-suffix* partition of
// a word under a fixed parameter store. It memoizes decoded boundaries per
// word string, which is sound because the store is immutable for the
// lifetime of the Segmentor.
type Segmentor struct {
	params *Params
	cache  *lru.Cache[string, []segment]
}

func NewSegmentor(p *Params) *Segmentor {
	cache, _ := lru.New[string, []segment](segmentCacheSize)
	return &Segmentor{params: p, cache: cache}
}

// SegmentWord returns the space-joined best segmentation of word. With
// addAffixSymbols set, prefixes are rendered as "p+" and suffixes as "+s";
// the flag changes formatting only, never the decoded boundaries.
func (s *Segmentor) SegmentWord(word string, addAffixSymbols bool) (string, error) {
	if cached, ok := s.cache.Get(word); ok {
		return formatSegments(cached, addAffixSymbols), nil
	}
	segs, err := s.decode(word)
	if err != nil {
		return "", err
	}
	s.cache.Add(word, segs)
	return formatSegments(segs, addAffixSymbols), nil
}

// decode runs Viterbi over substring boundaries in log space. dp[j][s] is
// the best log score of generating the first j runes and ending in grammar
// state s; each step consumes one substring runes[i:j] emitted by s. Spans
// never exceed the store's morpheme length bound, so words longer than the
// bound are forced to split. Comparisons are strict, and span starts are
// visited in ascending order, so ties resolve to the earliest boundary
// deterministically.
func (s *Segmentor) decode(word string) ([]segment, error) {
	runes := []rune(word)
	n := len(runes)
	if n == 0 {
		return nil, ErrEmptyWord
	}
	maxLen := s.params.MaxMorphLen
	if maxLen <= 0 {
		maxLen = n
	}

	type backref struct {
		i    int
		prev State
	}
	negInf := math.Inf(-1)
	dp := make([][NumStates]float64, n+1)
	back := make([][NumStates]backref, n+1)
	for j := 0; j <= n; j++ {
		for st := 0; st < NumStates; st++ {
			dp[j][st] = negInf
		}
	}
	dp[0][StateStart] = 0

	for j := 1; j <= n; j++ {
		lo := j - maxLen
		if lo < 0 {
			lo = 0
		}
		for i := lo; i < j; i++ {
			substr := string(runes[i:j])
			for _, st := range emittingStates {
				logEmit := s.params.EmissionLogProb(StateClass(st), substr)
				for prev := StateStart; prev < StateEnd; prev++ {
					if dp[i][prev] == negInf {
						continue
					}
					trans := s.params.TransitionProb(prev, st)
					if trans <= 0 {
						continue
					}
					score := dp[i][prev] + math.Log(trans) + logEmit
					if score > dp[j][st] {
						dp[j][st] = score
						back[j][st] = backref{i: i, prev: prev}
					}
				}
			}
		}
	}

	best := negInf
	bestState := StateStart
	for _, st := range []State{StateStem, StateSuffix} {
		if dp[n][st] == negInf {
			continue
		}
		trans := s.params.TransitionProb(st, StateEnd)
		if trans <= 0 {
			continue
		}
		if score := dp[n][st] + math.Log(trans); score > best {
			best = score
			bestState = st
		}
	}
	if best == negInf {
		return nil, fmt.Errorf("%w: %q", ErrNoSegmentation, word)
	}

	var segs []segment
	for j, st := n, bestState; j > 0; {
		ref := back[j][st]
		segs = append(segs, segment{
			substr: string(runes[ref.i:j]),
			class:  StateClass(st),
		})
		j, st = ref.i, ref.prev
	}
	for l, r := 0, len(segs)-1; l < r; l, r = l+1, r-1 {
		segs[l], segs[r] = segs[r], segs[l]
	}
	return segs, nil
}

func formatSegments(segs []segment, addAffixSymbols bool) string {
	parts := make([]string, len(segs))
	for i, seg := range segs {
		if !addAffixSymbols {
			parts[i] = seg.substr
			continue
		}
		switch seg.class {
		case Prefix:
			parts[i] = seg.substr + "+"
		case Suffix:
			parts[i] = "+" + seg.substr
		default:
			parts[i] = seg.substr
		}
	}
	return strings.Join(parts, " ")
}
