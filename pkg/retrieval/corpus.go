// Package retrieval indexes the fixed reference corpus of SAR narrative
// templates and regulatory guideline documents and answers nearest-document
// queries for the generation pipeline.
package retrieval

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var corpusYAML []byte

// Document is one reference document in the corpus.
type Document struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Tags    []string `yaml:"tags"`
	Content string   `yaml:"content"`
}

// Corpus holds the two document collections the pipeline retrieves from.
type Corpus struct {
	Templates   []Document `yaml:"templates"`
	Regulations []Document `yaml:"regulations"`
}

// LoadCorpus parses the embedded reference corpus.
func LoadCorpus() (*Corpus, error) {
	var c Corpus
	if err := yaml.Unmarshal(corpusYAML, &c); err != nil {
		return nil, fmt.Errorf("parse embedded corpus: %w", err)
	}
	if len(c.Templates) == 0 || len(c.Regulations) == 0 {
		return nil, fmt.Errorf("embedded corpus is incomplete: %d templates, %d regulations",
			len(c.Templates), len(c.Regulations))
	}
	return &c, nil
}

// indexText is the text a document is indexed under: content plus tags, the
// tags acting as retrieval keywords.
func (d Document) indexText() string {
	return d.Content + " " + strings.Join(d.Tags, " ")
}
