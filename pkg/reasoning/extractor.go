// Package reasoning parses the semi-structured audit trailer that the
// generation backend is instructed to append to every narrative. The trailer
// format is a convention the model usually follows, not a guarantee, so
// extraction is best-effort and never fails.
package reasoning

import (
	"strings"

	"github.com/aml-forge/sar-engine/pkg/models"
)

// Marker delimits the trailing reasoning section of a generated narrative.
const Marker = "AUDIT TRAIL - REASONING LOG"

// Section headers inside the trailer. Matched by substring so minor
// decoration (colons, markdown emphasis) does not break parsing.
const (
	headerDataSources = "DATA SOURCES USED"
	headerTypologies  = "RULES/TYPOLOGIES MATCHED"
	headerConfidence  = "CONFIDENCE ASSESSMENT"
	headerLimitations = "LIMITATIONS"
)

// Extraction holds the structured fields parsed from the trailer.
type Extraction struct {
	DataSources  []string
	Typologies   []string
	RulesMatched []string
	Confidence   models.Confidence
	KeyFactors   []string
	Limitations  []string
}

// Extract parses the trailing reasoning section of generated text. If the
// marker is absent or the section is malformed, it returns defaults (MEDIUM
// confidence, empty lists) rather than an error.
func Extract(narrative string) *Extraction {
	out := &Extraction{Confidence: models.ConfidenceMedium}

	idx := strings.Index(narrative, Marker)
	if idx < 0 {
		return out
	}

	section := narrative[idx+len(Marker):]
	current := ""
	for _, raw := range strings.Split(section, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.Contains(line, headerDataSources):
			current = "sources"
		case strings.Contains(line, headerTypologies):
			current = "typologies"
		case strings.Contains(line, headerConfidence):
			current = "confidence"
		case strings.Contains(line, headerLimitations):
			current = "limitations"
		case strings.HasPrefix(line, "- ") && current != "":
			item := strings.TrimSpace(line[2:])
			switch current {
			case "sources":
				out.DataSources = append(out.DataSources, item)
			case "typologies":
				out.Typologies = append(out.Typologies, item)
				out.RulesMatched = append(out.RulesMatched, item)
			case "confidence":
				if strings.Contains(strings.ToLower(line), "confidence:") {
					out.Confidence = scanConfidence(line)
				} else {
					out.KeyFactors = append(out.KeyFactors, item)
				}
			case "limitations":
				out.Limitations = append(out.Limitations, item)
			}
		}
	}
	return out
}

// scanConfidence finds the first severity token on a confidence line.
// Order matters: CRITICAL must be checked before HIGH and so on.
func scanConfidence(line string) models.Confidence {
	upper := strings.ToUpper(line)
	for _, level := range []models.Confidence{
		models.ConfidenceCritical,
		models.ConfidenceHigh,
		models.ConfidenceMedium,
		models.ConfidenceLow,
	} {
		if strings.Contains(upper, string(level)) {
			return level
		}
	}
	return models.ConfidenceMedium
}

// AuditMap renders the extraction as the key-value shape stored in the
// audit trail alongside a generation event.
func (e *Extraction) AuditMap() map[string]any {
	return map[string]any{
		"data_sources_used":  emptyIfNil(e.DataSources),
		"typologies_matched": emptyIfNil(e.Typologies),
		"rules_matched":      emptyIfNil(e.RulesMatched),
		"confidence_level":   string(e.Confidence),
		"key_factors":        emptyIfNil(e.KeyFactors),
		"limitations":        emptyIfNil(e.Limitations),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
