// assess-retrieval runs a set of representative alert queries against the
// embedded reference corpus and prints the scored matches, so corpus edits can
// be sanity-checked without starting the engine.
//
// Usage: go run ./scripts/assess-retrieval [-k 3] ["custom query"]
//
// With no argument it runs the built-in query set covering each alert type.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/aml-forge/sar-engine/pkg/retrieval"
)

var defaultQueries = []string{
	"STRUCTURING Total: 487500, Count: 47",
	"RAPID_MOVEMENT rapid in-out transfers pass-through",
	"HIGH_RISK_JURISDICTION cross-border wire transfers sanctioned country",
	"UNUSUAL_VOLUME cash deposits inconsistent with income",
	"ROUND_TRIP circular funds flow between related accounts",
}

func main() {
	k := flag.Int("k", 3, "results per collection")
	flag.Parse()

	queries := defaultQueries
	if flag.NArg() > 0 {
		queries = flag.Args()
	}

	corpus, err := retrieval.LoadCorpus()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load corpus: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Corpus: %d templates, %d regulations\n\n", len(corpus.Templates), len(corpus.Regulations))

	templates := retrieval.NewIndex(corpus.Templates)
	regulations := retrieval.NewIndex(corpus.Regulations)

	for _, query := range queries {
		fmt.Printf("QUERY: %s\n", query)
		printResults("templates", templates.Query(query, *k))
		printResults("regulations", regulations.Query(query, *k))
		fmt.Println()
	}
}

func printResults(collection string, results []retrieval.Result) {
	if len(results) == 0 {
		fmt.Printf("  %s: no matches\n", collection)
		return
	}
	for _, r := range results {
		fmt.Printf("  %s  %.4f  %-28s %s\n", collection, r.Score, r.ID, r.Title)
	}
}
