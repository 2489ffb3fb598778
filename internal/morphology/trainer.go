package morphology

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// EStep is one of the two mutually exclusive expectation strategies,
// chosen once at Trainer construction.
type EStep interface {
	// accumulate folds one training word's statistics, weighted by its
	// corpus count, into a private count table.
	accumulate(p *Params, word string, count int, into *Counts) error
}

// CheckpointFunc persists the store after a completed iteration.
// Iterations are 1-based.
type CheckpointFunc func(p *Params, iteration int) error

// ProgressFunc is notified once per completed iteration.
type ProgressFunc func(iteration, total int)

// Trainer runs expectation-maximization over a parameter store. Workers
// share nothing: each E-step shard fills its own Counts, and the merged sum
// feeds the store's Smooth. The store is only written between iterations.
type Trainer struct {
	params     *Params
	estep      EStep
	workers    int
	checkpoint CheckpointFunc
	progress   ProgressFunc
}

type TrainerOption func(*Trainer)

// WithHardEM switches the E-step to Viterbi counts: only the single best
// segmentation of each word contributes, instead of the full posterior.
func WithHardEM() TrainerOption {
	return func(t *Trainer) { t.estep = hardEM{} }
}

// WithCheckpoint persists the store after every iteration, so a long run
// can be inspected or manually resumed from the last completed pass.
func WithCheckpoint(fn CheckpointFunc) TrainerOption {
	return func(t *Trainer) { t.checkpoint = fn }
}

// WithProgress reports per-iteration progress, e.g. to a progress bar.
func WithProgress(fn ProgressFunc) TrainerOption {
	return func(t *Trainer) { t.progress = fn }
}

func withEStep(e EStep) TrainerOption {
	return func(t *Trainer) { t.estep = e }
}

func NewTrainer(p *Params, workers int, opts ...TrainerOption) *Trainer {
	if workers < 1 {
		workers = 1
	}
	t := &Trainer{
		params:  p,
		estep:   softEM{},
		workers: workers,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train runs exactly iterations full E/M passes. Convergence is the
// caller's concern; an empty corpus makes every pass a no-op. Any worker
// error aborts the run before the M-step, so a store trained on a
// silently incomplete corpus can never be produced.
func (t *Trainer) Train(ctx context.Context, iterations int) error {
	words := sortedWords(t.params.WordCounts)
	for it := 1; it <= iterations; it++ {
		counts, err := t.eStep(ctx, words)
		if err != nil {
			return fmt.Errorf("E-step failed at iteration %d: %w", it, err)
		}
		t.params.Smooth(counts)
		if t.checkpoint != nil {
			if err := t.checkpoint(t.params, it); err != nil {
				return fmt.Errorf("checkpoint at iteration %d: %w", it, err)
			}
		}
		if t.progress != nil {
			t.progress(it, iterations)
		}
	}
	return nil
}

// eStep fans the sorted word list out over contiguous shards, one goroutine
// each, and sums the returned partial tables in shard index order. The sum
// is commutative, so worker completion order never matters; a failed shard
// fails the whole step via the errgroup.
func (t *Trainer) eStep(ctx context.Context, words []string) (*Counts, error) {
	shards := shardWords(words, t.workers)
	results := make([]*Counts, len(shards))

	g, ctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		g.Go(func() error {
			partial := NewCounts()
			for _, word := range shard {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if err := t.estep.accumulate(t.params, word, t.params.WordCounts[word], partial); err != nil {
					return fmt.Errorf("word %q: %w", word, err)
				}
			}
			results[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewCounts()
	for _, partial := range results {
		merged.Add(partial)
	}
	return merged, nil
}

// shardWords slices words into at most n contiguous shards of near-equal
// size, dropping empty tails for small corpora.
func shardWords(words []string, n int) [][]string {
	if len(words) == 0 {
		return nil
	}
	if n > len(words) {
		n = len(words)
	}
	shards := make([][]string, 0, n)
	size := (len(words) + n - 1) / n
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		shards = append(shards, words[start:end])
	}
	return shards
}

// hardEM accumulates counts from the single Viterbi-best segmentation.
type hardEM struct{}

func (hardEM) accumulate(p *Params, word string, count int, into *Counts) error {
	segs, err := (&Segmentor{params: p}).decode(word)
	if err != nil {
		return err
	}
	weight := float64(count)
	prev := StateStart
	for _, seg := range segs {
		st := ClassState(seg.class)
		into.addEmission(seg.class, seg.substr, weight)
		into.addTransition(prev, st, weight)
		prev = st
	}
	into.addTransition(prev, StateEnd, weight)
	return nil
}

// softEM accumulates posterior expected counts over all legal segmentations
// via a forward-backward pass over substring boundaries. Probabilities stay
// in linear space; words are short enough that underflow is not a concern
// in practice.
type softEM struct{}

func (softEM) accumulate(p *Params, word string, count int, into *Counts) error {
	runes := []rune(word)
	n := len(runes)
	if n == 0 {
		return ErrEmptyWord
	}
	maxLen := p.MaxMorphLen
	if maxLen <= 0 {
		maxLen = n
	}

	// forward[j][s]: total probability of generating the first j runes and
	// sitting in state s. Spans beyond the morpheme length bound are outside
	// every vocabulary and would contribute zero anyway, so they are skipped.
	forward := make([][NumStates]float64, n+1)
	forward[0][StateStart] = 1
	for j := 1; j <= n; j++ {
		lo := j - maxLen
		if lo < 0 {
			lo = 0
		}
		for i := lo; i < j; i++ {
			substr := string(runes[i:j])
			for _, st := range emittingStates {
				emit := p.EmissionProb(StateClass(st), substr)
				if emit == 0 {
					continue
				}
				for prev := StateStart; prev < StateEnd; prev++ {
					if forward[i][prev] == 0 {
						continue
					}
					forward[j][st] += forward[i][prev] * p.TransitionProb(prev, st) * emit
				}
			}
		}
	}

	// backward[i][s]: total probability of generating the remaining runes
	// and reaching END, given state s was just left off at position i.
	backward := make([][NumStates]float64, n+1)
	for _, st := range []State{StateStem, StateSuffix} {
		backward[n][st] = p.TransitionProb(st, StateEnd)
	}
	for i := n - 1; i >= 0; i-- {
		for j := i + 1; j <= n && j-i <= maxLen; j++ {
			substr := string(runes[i:j])
			for _, st := range emittingStates {
				if backward[j][st] == 0 {
					continue
				}
				emit := p.EmissionProb(StateClass(st), substr)
				if emit == 0 {
					continue
				}
				for prev := StateStart; prev < StateEnd; prev++ {
					backward[i][prev] += p.TransitionProb(prev, st) * emit * backward[j][st]
				}
			}
		}
	}

	total := backward[0][StateStart]
	if total == 0 || math.IsNaN(total) {
		return fmt.Errorf("%w: %q", ErrNoSegmentation, word)
	}

	weight := float64(count)
	for i := 0; i < n; i++ {
		for j := i + 1; j <= n && j-i <= maxLen; j++ {
			substr := string(runes[i:j])
			for _, st := range emittingStates {
				emit := p.EmissionProb(StateClass(st), substr)
				if emit == 0 || backward[j][st] == 0 {
					continue
				}
				for prev := StateStart; prev < StateEnd; prev++ {
					if forward[i][prev] == 0 {
						continue
					}
					posterior := forward[i][prev] * p.TransitionProb(prev, st) * emit * backward[j][st] / total
					if posterior == 0 {
						continue
					}
					into.addEmission(StateClass(st), substr, posterior*weight)
					into.addTransition(prev, st, posterior*weight)
				}
			}
		}
	}
	for _, st := range []State{StateStem, StateSuffix} {
		if forward[n][st] == 0 {
			continue
		}
		posterior := forward[n][st] * p.TransitionProb(st, StateEnd) / total
		into.addTransition(st, StateEnd, posterior*weight)
	}
	return nil
}
