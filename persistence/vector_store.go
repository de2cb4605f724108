package persistence

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Document is one remembered text.
type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResult pairs a document with its similarity to the query.
type SearchResult struct {
	Document Document
	Score    float64
}

// VectorStore provides recall by text similarity.
type VectorStore interface {
	Upsert(ctx context.Context, doc Document) error
	Query(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryVectorStore implements a term-frequency cosine similarity store.
type InMemoryVectorStore struct {
	mu   sync.RWMutex
	data map[string]Document
	vecs map[string]map[string]float64
	seq  map[string]int
	next int
}

// NewInMemoryVectorStore returns a ready-to-use store.
func NewInMemoryVectorStore() *InMemoryVectorStore {
	s := &InMemoryVectorStore{}
	s.reset()
	return s
}

func (s *InMemoryVectorStore) reset() {
	s.data = make(map[string]Document)
	s.vecs = make(map[string]map[string]float64)
	s.seq = make(map[string]int)
	s.next = 0
}

// Upsert encodes and stores a document.
func (s *InMemoryVectorStore) Upsert(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.ID == "" {
		return errors.New("document id required")
	}
	vector := embed(doc.Content)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seq[doc.ID]; !ok {
		s.seq[doc.ID] = s.next
		s.next++
	}
	s.data[doc.ID] = doc
	s.vecs[doc.ID] = vector
	return nil
}

// Query returns up to limit documents sharing vocabulary with query, best
// match first. Ties keep insertion order.
func (s *InMemoryVectorStore) Query(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	qVec := embed(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []SearchResult
	for id, vec := range s.vecs {
		score := cosineSimilarity(qVec, vec)
		if score == 0 {
			continue
		}
		results = append(results, SearchResult{Document: s.data[id], Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return s.seq[results[i].Document.ID] < s.seq[results[j].Document.ID]
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete removes a document by id.
func (s *InMemoryVectorStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	delete(s.vecs, id)
	delete(s.seq, id)
	return nil
}

// Reset drops every document.
func (s *InMemoryVectorStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Len reports the number of stored documents.
func (s *InMemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Documents returns all documents in insertion order.
func (s *InMemoryVectorStore) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]Document, 0, len(s.data))
	for _, doc := range s.data {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return s.seq[docs[i].ID] < s.seq[docs[j].ID] })
	return docs
}

// embed tokenizes text into a term-frequency vector. Punctuation separates
// tokens so "result:" and "result" match.
func embed(text string) map[string]float64 {
	vector := make(map[string]float64)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, token := range tokens {
		vector[token]++
	}
	return vector
}

func cosineSimilarity(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for term, weight := range a {
		dot += weight * b[term]
		normA += weight * weight
	}
	for _, weight := range b {
		normB += weight * weight
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rank scores documents against query and returns the best k contents.
func rank(query string, docs []Document, k int) []string {
	if k <= 0 {
		return nil
	}
	qVec := embed(query)
	type scored struct {
		content string
		score   float64
		idx     int
	}
	var hits []scored
	for i, doc := range docs {
		if score := cosineSimilarity(qVec, embed(doc.Content)); score > 0 {
			hits = append(hits, scored{doc.Content, score, i})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].idx < hits[j].idx
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.content
	}
	return out
}
