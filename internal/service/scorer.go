package service

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/agrihealth-server/internal/domain"
)

// Match is the outcome of a successful scoring run
type Match struct {
	Disease    *domain.DiseaseEntry
	MatchCount int
	Confidence float64
}

// confidenceSource draws confidence values. It is shared by every request,
// so access to the generator is serialized.
type confidenceSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newConfidenceSource(seed uint64) *confidenceSource {
	return &confidenceSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// draw returns a value uniformly distributed in [r.Min, r.Max], rounded to
// two decimals.
func (c *confidenceSource) draw(r domain.Range) float64 {
	c.mu.Lock()
	f := c.rng.Float64()
	c.mu.Unlock()
	v := r.Min + f*(r.Max-r.Min)
	v = math.Round(v*100) / 100
	return math.Min(math.Max(v, r.Min), r.Max)
}

func (c *confidenceSource) intN(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

// SymptomScorer ranks candidate diseases by how many observed symptoms they
// list.
type SymptomScorer struct {
	minOverlap int
	confidence domain.Range
	source     *confidenceSource
}

// NewSymptomScorer creates a scorer. Matches below minOverlap shared
// symptoms are rejected.
func NewSymptomScorer(minOverlap int, confidence domain.Range, seed uint64) *SymptomScorer {
	return &SymptomScorer{
		minOverlap: minOverlap,
		confidence: confidence,
		source:     newConfidenceSource(seed),
	}
}

// Score picks the candidate sharing the most symptoms with observed. Ties
// go to the earliest candidate. Observed symptoms are compared as a set by
// exact string equality.
func (s *SymptomScorer) Score(observed []string, candidates []*domain.DiseaseEntry) (*Match, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates: %w", domain.ErrNoMatch)
	}

	set := make(map[string]struct{}, len(observed))
	for _, o := range observed {
		set[o] = struct{}{}
	}

	var best *domain.DiseaseEntry
	bestCount := -1
	for _, c := range candidates {
		count := overlap(set, c.Symptoms)
		if count > bestCount {
			best, bestCount = c, count
		}
	}

	if bestCount < s.minOverlap {
		return nil, fmt.Errorf("best candidate shares %d symptoms: %w", bestCount, domain.ErrNoMatch)
	}

	return &Match{
		Disease:    best,
		MatchCount: bestCount,
		Confidence: s.source.draw(s.confidence),
	}, nil
}

func overlap(observed map[string]struct{}, symptoms []string) int {
	counted := make(map[string]struct{}, len(symptoms))
	n := 0
	for _, symptom := range symptoms {
		if _, ok := observed[symptom]; !ok {
			continue
		}
		if _, dup := counted[symptom]; dup {
			continue
		}
		counted[symptom] = struct{}{}
		n++
	}
	return n
}

// RandomPlaceholderBackend stands in for an image model by picking a
// uniformly random candidate.
type RandomPlaceholderBackend struct {
	source *confidenceSource
}

// NewRandomPlaceholderBackend creates the placeholder image backend
func NewRandomPlaceholderBackend(seed uint64) *RandomPlaceholderBackend {
	return &RandomPlaceholderBackend{source: newConfidenceSource(seed)}
}

// Identify implements domain.ScorerBackend
func (b *RandomPlaceholderBackend) Identify(_ context.Context, _ string, candidates []*domain.DiseaseEntry) (*domain.DiseaseEntry, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	return candidates[b.source.intN(len(candidates))], nil
}
