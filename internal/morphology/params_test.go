package morphology

import (
	"math"
	"reflect"
	"testing"
)

func testCorpus() map[string]int {
	return map[string]int{
		"walked":  2,
		"walking": 1,
		"talked":  3,
	}
}

func assertRowSum(t *testing.T, row map[string]float64, want float64) {
	t.Helper()
	var sum float64
	for _, v := range row {
		sum += v
	}
	if math.Abs(sum-want) > 1e-9 {
		t.Errorf("row sums to %v, want %v", sum, want)
	}
}

func TestNewParamsRowsNormalized(t *testing.T) {
	p := NewParams(testCorpus(), DefaultConfig())

	for c := 0; c < NumClasses; c++ {
		if len(p.Emissions[c]) == 0 {
			t.Fatalf("class %v has empty emission row", Class(c))
		}
		assertRowSum(t, p.Emissions[c], 1)
	}
	for from := State(0); from < StateEnd; from++ {
		var sum float64
		for to := State(0); to < NumStates; to++ {
			sum += p.Transitions[from][to]
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("transition row %v sums to %v, want 1", from, sum)
		}
	}
}

func TestNewParamsVocabularyRestriction(t *testing.T) {
	p := NewParams(map[string]int{"walked": 1}, DefaultConfig())

	tests := []struct {
		class  Class
		substr string
		want   bool
	}{
		{Prefix, "w", true},
		{Prefix, "walke", true},
		{Prefix, "walked", false}, // whole word is never a proper prefix
		{Prefix, "alk", false},    // not word-initial
		{Suffix, "d", true},
		{Suffix, "alked", true},
		{Suffix, "walked", false},
		{Suffix, "alk", false},
		{Stem, "walked", true},
		{Stem, "alk", true},
		{Stem, "w", true},
	}
	for _, tt := range tests {
		_, ok := p.Emissions[tt.class][tt.substr]
		if ok != tt.want {
			t.Errorf("%v vocabulary contains %q = %v, want %v", tt.class, tt.substr, ok, tt.want)
		}
	}
}

func TestNewParamsHonorsMaxMorphLen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMorphLen = 3
	p := NewParams(map[string]int{"walked": 1}, cfg)

	if _, ok := p.Emissions[Stem]["walk"]; ok {
		t.Error("stem vocabulary contains a substring longer than the morpheme bound")
	}
	if _, ok := p.Emissions[Stem]["alk"]; !ok {
		t.Error("stem vocabulary lost an in-bound substring")
	}
	if _, ok := p.Emissions[Prefix]["wal"]; !ok {
		t.Error("prefix vocabulary lost an in-bound word-initial substring")
	}
	if _, ok := p.Emissions[Suffix]["ked"]; !ok {
		t.Error("suffix vocabulary lost an in-bound word-final substring")
	}
	if p.MaxMorphLen != 3 {
		t.Errorf("MaxMorphLen = %d, want 3", p.MaxMorphLen)
	}
}

func TestSmoothKeepsRowsNormalizedAndPositive(t *testing.T) {
	p := NewParams(testCorpus(), DefaultConfig())

	counts := NewCounts()
	counts.addEmission(Stem, "walk", 5)
	counts.addEmission(Suffix, "ed", 5)
	counts.addTransition(StateStart, StateStem, 5)
	counts.addTransition(StateStem, StateSuffix, 5)
	counts.addTransition(StateSuffix, StateEnd, 5)
	p.Smooth(counts)

	for c := 0; c < NumClasses; c++ {
		assertRowSum(t, p.Emissions[c], 1)
		for substr, prob := range p.Emissions[c] {
			if prob <= 0 {
				t.Errorf("class %v emission for %q is %v, want > 0", Class(c), substr, prob)
			}
		}
	}
	for from := State(0); from < StateEnd; from++ {
		var sum float64
		for _, to := range legalNext[from] {
			prob := p.Transitions[from][to]
			if prob <= 0 {
				t.Errorf("transition %v->%v is %v, want > 0", from, to, prob)
			}
			sum += prob
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("transition row %v sums to %v, want 1", from, sum)
		}
	}

	if p.Emissions[Stem]["walk"] <= p.Emissions[Stem]["alk"] {
		t.Errorf("counted substring should outweigh uncounted one: walk=%v alk=%v",
			p.Emissions[Stem]["walk"], p.Emissions[Stem]["alk"])
	}
}

func TestEmissionLogProbOutOfVocabulary(t *testing.T) {
	p := NewParams(testCorpus(), DefaultConfig())

	if got := p.EmissionLogProb(Stem, "zzz"); got != smallLogProb {
		t.Errorf("out-of-vocabulary log prob = %v, want %v", got, smallLogProb)
	}
	if got := p.EmissionLogProb(Stem, "walk"); math.IsInf(got, -1) || got == smallLogProb {
		t.Errorf("in-vocabulary log prob = %v, want finite log probability", got)
	}
	if got := p.EmissionProb(Stem, "zzz"); got != 0 {
		t.Errorf("out-of-vocabulary prob = %v, want 0", got)
	}
}

func TestEmptyCorpus(t *testing.T) {
	p := NewParams(map[string]int{}, DefaultConfig())

	for c := 0; c < NumClasses; c++ {
		if len(p.Emissions[c]) != 0 {
			t.Errorf("class %v emission row not empty", Class(c))
		}
	}
	// Smoothing an empty store must be a structural no-op, not a panic.
	p.Smooth(NewCounts())
}

func TestNormalInitDeterministicPerSeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UseNormalInit = true
	cfg.Seed = 42

	a := NewParams(testCorpus(), cfg)
	b := NewParams(testCorpus(), cfg)
	if !reflect.DeepEqual(a.Emissions, b.Emissions) {
		t.Error("same seed produced different emission tables")
	}

	cfg.Seed = 43
	c := NewParams(testCorpus(), cfg)
	if reflect.DeepEqual(a.Emissions, c.Emissions) {
		t.Error("different seeds produced identical emission tables")
	}
	for class := 0; class < NumClasses; class++ {
		assertRowSum(t, c.Emissions[class], 1)
	}
}

func TestCountsAddIsCommutative(t *testing.T) {
	a := NewCounts()
	a.addEmission(Stem, "walk", 1.5)
	a.addTransition(StateStart, StateStem, 1.5)
	b := NewCounts()
	b.addEmission(Stem, "walk", 2.5)
	b.addEmission(Prefix, "w", 1)
	b.addTransition(StateStart, StateStem, 2.5)

	ab := NewCounts()
	ab.Add(a)
	ab.Add(b)
	ba := NewCounts()
	ba.Add(b)
	ba.Add(a)

	if !reflect.DeepEqual(ab, ba) {
		t.Error("merge order changed the summed counts")
	}
	if got := ab.Emissions[Stem]["walk"]; got != 4 {
		t.Errorf("merged stem count for walk = %v, want 4", got)
	}
}
