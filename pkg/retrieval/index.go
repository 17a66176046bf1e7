package retrieval

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Result is one retrieved document with its relevance score.
type Result struct {
	ID      string
	Title   string
	Tags    []string
	Content string
	Score   float64
}

// Index is a term-weighted (TF-IDF, unigrams+bigrams) representation of a
// document collection. Queries never mutate the index and never fail: an
// insufficient match set yields a shorter, possibly empty, result list.
type Index struct {
	docs    []Document
	idf     map[string]float64
	vectors []map[string]float64 // L2-normalised TF-IDF vector per document
}

// english stopwords that would otherwise dominate the bigram vocabulary.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "with": {}, "this": {}, "their": {}, "not": {},
}

// NewIndex builds the TF-IDF representation for a document collection.
func NewIndex(docs []Document) *Index {
	idx := &Index{
		docs: docs,
		idf:  make(map[string]float64),
	}

	termCounts := make([]map[string]float64, len(docs))
	docFreq := make(map[string]int)
	for i, d := range docs {
		counts := make(map[string]float64)
		for _, term := range terms(d.indexText()) {
			counts[term]++
		}
		termCounts[i] = counts
		for term := range counts {
			docFreq[term]++
		}
	}

	// Smoothed IDF so terms present in every document still carry weight.
	n := float64(len(docs))
	for term, df := range docFreq {
		idx.idf[term] = math.Log((1+n)/(1+float64(df))) + 1
	}

	idx.vectors = make([]map[string]float64, len(docs))
	for i, counts := range termCounts {
		idx.vectors[i] = normalize(weigh(counts, idx.idf))
	}

	return idx
}

// Query returns up to k documents ordered by descending cosine similarity to
// the query text. Documents with zero similarity are excluded even if fewer
// than k remain; ties keep original corpus order.
func (idx *Index) Query(text string, k int) []Result {
	if k <= 0 {
		return nil
	}

	counts := make(map[string]float64)
	for _, term := range terms(text) {
		counts[term]++
	}
	qvec := normalize(weigh(counts, idx.idf))

	// No query term survived into the vocabulary (stopword-only query or a
	// degenerate corpus); word overlap is the only signal left.
	if len(qvec) == 0 {
		return idx.KeywordQuery(text, k)
	}

	type scored struct {
		pos   int
		score float64
	}
	var matches []scored
	for i, dvec := range idx.vectors {
		if s := dot(qvec, dvec); s > 0 {
			matches = append(matches, scored{pos: i, score: s})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		d := idx.docs[m.pos]
		results = append(results, Result{
			ID:      d.ID,
			Title:   d.Title,
			Tags:    d.Tags,
			Content: d.Content,
			Score:   m.score,
		})
	}
	return results
}

// KeywordQuery is the fallback ranking: count of query words appearing in the
// document text. Used when the TF-IDF vocabulary is degenerate.
func (idx *Index) KeywordQuery(text string, k int) []Result {
	if k <= 0 {
		return nil
	}

	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[w] = struct{}{}
	}

	type scored struct {
		pos   int
		score float64
	}
	var matches []scored
	for i, d := range idx.docs {
		text := strings.ToLower(d.indexText())
		var score float64
		for w := range words {
			if strings.Contains(text, w) {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{pos: i, score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if len(matches) > k {
		matches = matches[:k]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		d := idx.docs[m.pos]
		results = append(results, Result{
			ID:      d.ID,
			Title:   d.Title,
			Tags:    d.Tags,
			Content: d.Content,
			Score:   m.score,
		})
	}
	return results
}

// terms tokenises text into lowercased unigrams and bigrams, skipping
// stopwords (bigrams are formed over the surviving tokens).
func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; !skip {
			tokens = append(tokens, f)
		}
	}

	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

func weigh(counts map[string]float64, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64, len(counts))
	for term, tf := range counts {
		if w, ok := idf[term]; ok {
			vec[term] = tf * w
		}
	}
	return vec
}

func normalize(vec map[string]float64) map[string]float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for term, v := range vec {
		vec[term] = v / norm
	}
	return vec
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, v := range a {
		sum += v * b[term]
	}
	return sum
}
