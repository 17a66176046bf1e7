package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDocs() []Document {
	return []Document{
		{ID: "doc_structuring", Title: "Structuring", Tags: []string{"structuring", "cash"},
			Content: "Cash deposits structured below the reporting threshold across multiple branches"},
		{ID: "doc_layering", Title: "Layering", Tags: []string{"layering", "wire"},
			Content: "Rapid wire transfers layering funds through shell company accounts"},
		{ID: "doc_trade", Title: "Trade", Tags: []string{"trade", "invoice"},
			Content: "Over-invoicing and under-invoicing in trade based laundering schemes"},
	}
}

func TestIndex_Query_RanksRelevantFirst(t *testing.T) {
	idx := NewIndex(testDocs())

	results := idx.Query("structuring cash deposits below threshold", 3)

	require.NotEmpty(t, results)
	assert.Equal(t, "doc_structuring", results[0].ID)
}

func TestIndex_Query_AtMostK(t *testing.T) {
	idx := NewIndex(testDocs())

	results := idx.Query("funds accounts deposits transfers", 2)
	assert.LessOrEqual(t, len(results), 2)
}

func TestIndex_Query_DescendingScores(t *testing.T) {
	idx := NewIndex(testDocs())

	results := idx.Query("structuring cash wire transfers", 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestIndex_Query_ExcludesZeroScores(t *testing.T) {
	idx := NewIndex(testDocs())

	// No vocabulary overlap with any document.
	results := idx.Query("zzz qqq xyzzy", 3)
	assert.Empty(t, results)

	for _, r := range idx.Query("structuring", 3) {
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestIndex_Query_DoesNotMutate(t *testing.T) {
	idx := NewIndex(testDocs())

	first := idx.Query("structuring cash", 3)
	second := idx.Query("structuring cash", 3)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.InDelta(t, first[i].Score, second[i].Score, 1e-12)
	}
}

func TestIndex_Query_ZeroK(t *testing.T) {
	idx := NewIndex(testDocs())
	assert.Nil(t, idx.Query("structuring", 0))
}

func TestIndex_Query_KeywordFallbackOnStopwordQuery(t *testing.T) {
	idx := NewIndex(testDocs())

	// Every query term is a stopword, so the TF-IDF vector is empty and the
	// overlap fallback takes over ("the" appears in doc_structuring).
	results := idx.Query("the and of", 3)

	require.NotEmpty(t, results)
	assert.Equal(t, "doc_structuring", results[0].ID)
}

func TestIndex_Query_KeywordFallbackOnDegenerateCorpus(t *testing.T) {
	idx := NewIndex([]Document{
		{ID: "doc_empty_vocab", Title: "Stopwords", Content: "the and of in on at"},
	})

	results := idx.Query("the and of", 3)

	require.NotEmpty(t, results)
	assert.Equal(t, "doc_empty_vocab", results[0].ID)
}

func TestIndex_KeywordQuery_Fallback(t *testing.T) {
	idx := NewIndex(testDocs())

	results := idx.KeywordQuery("layering wire transfers", 2)
	require.NotEmpty(t, results)
	assert.Equal(t, "doc_layering", results[0].ID)
}

func TestLoadCorpus(t *testing.T) {
	corpus, err := LoadCorpus()
	require.NoError(t, err)

	assert.NotEmpty(t, corpus.Templates)
	assert.NotEmpty(t, corpus.Regulations)
	for _, d := range append(corpus.Templates, corpus.Regulations...) {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Content)
	}
}

func TestRetriever_Context(t *testing.T) {
	r, err := NewRetriever(2, 3, zap.NewNop())
	require.NoError(t, err)

	ctx := r.Context("STRUCTURING", "Total: 487500, Count: 47")

	assert.LessOrEqual(t, len(ctx.Templates), 2)
	assert.LessOrEqual(t, len(ctx.Regulations), 3)
	assert.NotEmpty(t, ctx.Templates, "structuring should match at least one template")
	assert.Len(t, ctx.TemplateIDs(), len(ctx.Templates))
	assert.Len(t, ctx.RegulationIDs(), len(ctx.Regulations))
}
