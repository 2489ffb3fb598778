package morphology

import (
	"math"
	"sort"
)

// LikenessConfig holds the two logistic curves used to turn substring
// statistics into an affix-likeness score: one over the substring's
// next-character perplexity, one over its length.
type LikenessConfig struct {
	PerplexityThreshold float64
	PerplexitySlope     float64
	LengthThreshold     float64
	LengthSlope         float64
}

// DefaultLikenessConfig mirrors the training CLI defaults.
func DefaultLikenessConfig() LikenessConfig {
	return LikenessConfig{
		PerplexityThreshold: 10,
		PerplexitySlope:     1,
		LengthThreshold:     3,
		LengthSlope:         2,
	}
}

// wordBoundary stands in for "end of word" in next-character context counts.
const wordBoundary = rune(0)

// EstimateLikeness scores every substring of every training word, up to
// maxLen runes, in [0,1]: high means affix-like, low means stem-like.
// Affixes are short and occur before many different continuations, so the
// score grows with the perplexity of the next-character distribution and
// shrinks with length. The two logistic curves are combined by
// multiplication, which keeps the score monotone in each statistic
// independently.
func EstimateLikeness(wordCounts map[string]int, maxLen int, cfg LikenessConfig) map[string]float64 {
	if maxLen <= 0 {
		maxLen = defaultMaxMorphLen
	}
	contexts := make(map[string]map[rune]float64)
	for word, count := range wordCounts {
		runes := []rune(word)
		for i := 0; i < len(runes); i++ {
			for j := i + 1; j <= len(runes) && j-i <= maxLen; j++ {
				substr := string(runes[i:j])
				next := wordBoundary
				if j < len(runes) {
					next = runes[j]
				}
				dist := contexts[substr]
				if dist == nil {
					dist = make(map[rune]float64)
					contexts[substr] = dist
				}
				dist[next] += float64(count)
			}
		}
	}

	likeness := make(map[string]float64, len(contexts))
	for substr, dist := range contexts {
		perp := perplexity(dist)
		length := float64(len([]rune(substr)))
		perpScore := sigmoid(cfg.PerplexitySlope * (perp - cfg.PerplexityThreshold))
		lenScore := sigmoid(cfg.LengthSlope * (cfg.LengthThreshold - length))
		likeness[substr] = perpScore * lenScore
	}
	return likeness
}

// perplexity is exp of the entropy of the next-character distribution.
func perplexity(dist map[rune]float64) float64 {
	var total float64
	for _, w := range dist {
		total += w
	}
	if total == 0 {
		return 1
	}
	var entropy float64
	for _, w := range dist {
		p := w / total
		entropy -= p * math.Log(p)
	}
	return math.Exp(entropy)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedWords returns the word-count table keys in a stable order, so that
// anything consuming the table per word (sharding, sampling) is
// deterministic across runs.
func sortedWords(wordCounts map[string]int) []string {
	words := make([]string, 0, len(wordCounts))
	for w := range wordCounts {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
