package engine

import (
	"fmt"
	"strings"
)

// systemPrompt carries the citation policy. The marker format must match
// what the verifier parses after generation.
const systemPrompt = `You are an expert assistant providing accurate information about countries and regions based on the provided context.

The context contains numbered excerpts from multiple sources such as ethnic power surveys, leadership databases and development statistics. Each excerpt is labeled [citation N].

Citation rules:
- Support every factual claim with an inline marker of the form [N], where N is the citation number of the excerpt backing the claim.
- Place the marker directly after the supported claim, before the closing punctuation.
- Use data from at least %d distinct sources when the context allows it.
- Only cite numbers that appear in the context. Never invent citation numbers.
- If the context does not cover part of the question, say so explicitly instead of guessing.`

// buildSystemPrompt fills the source diversity floor into the citation policy.
func buildSystemPrompt(minDistinctSources int) string {
	return fmt.Sprintf(systemPrompt, minDistinctSources)
}

// buildUserPrompt assembles the context bundle and the question.
func buildUserPrompt(bundle, question string) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	b.WriteString(bundle)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nDetailed answer:")
	return b.String()
}
