package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aml-forge/sar-engine/pkg/models"
	"github.com/aml-forge/sar-engine/pkg/retrieval"
)

const (
	// maxTransactions bounds how many raw transactions are embedded.
	maxTransactions = 20
	// maxReferenceChars bounds each retrieved reference document.
	maxReferenceChars = 1500
	// fingerprintLen is the truncated hex length of the prompt hash.
	fingerprintLen = 16
)

// PromptInput carries everything the assembler embeds into the instruction
// document.
type PromptInput struct {
	Customer           *models.CustomerProfile
	Alert              *models.TransactionAlert
	Transactions       []models.Transaction
	RiskIndicators     []string
	References         retrieval.Context
	HostingEnvironment string
}

// BuildNarrativePrompt produces the single instruction document for the
// generation backend. It is pure: identical inputs yield an identical
// document (and therefore an identical fingerprint).
func BuildNarrativePrompt(in PromptInput) string {
	txns := in.Transactions
	if len(txns) > maxTransactions {
		txns = txns[:maxTransactions]
	}

	var b strings.Builder
	b.WriteString("## CASE CONTEXT\n\n")

	b.WriteString("### Customer KYC Profile:\n")
	b.WriteString(asJSON(in.Customer))
	b.WriteString("\n\n### Transaction Alert Details:\n")
	b.WriteString(asJSON(in.Alert))
	b.WriteString("\n\n### Transaction Data:\n")
	b.WriteString(asJSON(txns))
	b.WriteString("\n\n### Risk Indicators Identified:\n")
	b.WriteString(asJSON(in.RiskIndicators))
	b.WriteString("\n\n### Hosting Environment:\n")
	b.WriteString(in.HostingEnvironment)

	b.WriteString("\n\n---\n\n## RETRIEVED REGULATORY CONTEXT\n\n")
	b.WriteString("### Relevant SAR Templates:\n")
	b.WriteString(referenceSection("Template", in.References.Templates))
	b.WriteString("\n\n### Applicable Regulatory Guidelines:\n")
	b.WriteString(referenceSection("Regulation", in.References.Regulations))

	b.WriteString("\n\n---\n\n## TASK\n\n")
	b.WriteString(`Based on the above data, generate a complete, professional SAR narrative report that:
1. Follows the mandatory output structure
2. Uses specific figures, dates, and account references from the data provided
3. Matches the activity to appropriate money laundering typologies
4. Provides clear reasoning for WHY each data point contributes to suspicion
5. Is objective, factual, and defensible to regulators
6. Notes which data sources were used for each conclusion

Remember to end with the AUDIT TRAIL - REASONING LOG section.`)

	return b.String()
}

// Fingerprint returns the truncated SHA-256 hash of a prompt, used to
// correlate audit entries with the exact input that produced them.
func Fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

func referenceSection(label string, docs []retrieval.Result) string {
	if len(docs) == 0 {
		return fmt.Sprintf("No specific %ss retrieved.", strings.ToLower(label))
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		content := d.Content
		if len(content) > maxReferenceChars {
			content = content[:maxReferenceChars]
		}
		parts = append(parts, fmt.Sprintf("%s: %s\n%s", label, d.Title, content))
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func asJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// Only reachable for unmarshalable values, which the typed inputs
		// cannot produce.
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
