package retrieval

import (
	"fmt"

	"go.uber.org/zap"
)

// Context is the reference material retrieved for one case.
type Context struct {
	Templates   []Result
	Regulations []Result
}

// TemplateIDs returns the identifiers of the retrieved templates, for
// correlation in the audit trail.
func (c Context) TemplateIDs() []string {
	ids := make([]string, 0, len(c.Templates))
	for _, t := range c.Templates {
		ids = append(ids, t.ID)
	}
	return ids
}

// RegulationIDs returns the identifiers of the retrieved regulations.
func (c Context) RegulationIDs() []string {
	ids := make([]string, 0, len(c.Regulations))
	for _, r := range c.Regulations {
		ids = append(ids, r.ID)
	}
	return ids
}

// Retriever answers reference-document queries over the two corpus
// collections. It is safe for concurrent use: queries do not mutate state.
type Retriever struct {
	templates       *Index
	regulations     *Index
	templateCount   int
	regulationCount int
	logger          *zap.Logger
}

// NewRetriever loads the embedded corpus and builds both indexes.
// templateCount and regulationCount are the per-query result limits.
func NewRetriever(templateCount, regulationCount int, logger *zap.Logger) (*Retriever, error) {
	corpus, err := LoadCorpus()
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if templateCount <= 0 {
		templateCount = 2
	}
	if regulationCount <= 0 {
		regulationCount = 3
	}
	return &Retriever{
		templates:       NewIndex(corpus.Templates),
		regulations:     NewIndex(corpus.Regulations),
		templateCount:   templateCount,
		regulationCount: regulationCount,
		logger:          logger.Named("retrieval"),
	}, nil
}

// Context retrieves both templates and regulations for a case, keyed on the
// alert type and a short transaction summary. A miss is not an error: the
// pipeline proceeds with whatever was found.
func (r *Retriever) Context(alertType, transactionSummary string) Context {
	query := alertType + " " + transactionSummary

	ctx := Context{
		Templates:   r.templates.Query(query, r.templateCount),
		Regulations: r.regulations.Query(query, r.regulationCount),
	}

	r.logger.Debug("retrieved reference context",
		zap.String("alert_type", alertType),
		zap.Int("templates", len(ctx.Templates)),
		zap.Int("regulations", len(ctx.Regulations)))

	return ctx
}
