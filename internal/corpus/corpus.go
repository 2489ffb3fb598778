// Package corpus turns raw whitespace-tokenized text into the word-count
// table the morphology engine trains on.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// scanBufSize allows very long lines in training corpora.
const scanBufSize = 1024 * 1024

// ReadWordCounts consumes one sentence per line and returns the multiplicity
// of every distinct whitespace-delimited token.
func ReadWordCounts(r io.Reader) (map[string]int, error) {
	counts := make(map[string]int)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufSize), scanBufSize)
	for scanner.Scan() {
		for _, word := range strings.Fields(scanner.Text()) {
			counts[word]++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}
	return counts, nil
}

// LoadWordCounts reads a corpus file from disk.
func LoadWordCounts(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return ReadWordCounts(f)
}
