package answer

import (
	"strings"
)

// Refusal is the sentence the model must use when the context does not
// contain the answer.
const Refusal = "I cannot find information about that in the provided menu details."

const instructions = `[INST] **CRITICAL INSTRUCTIONS:**
1. Your task is to answer the user's question about restaurant menus.
2. Base your answer **STRICTLY AND ONLY** on the information present in the 'CONTEXT' section below.
3. **DO NOT** use any outside knowledge or make assumptions.
4. If the exact item or information requested in the 'USER QUESTION' is **NOT FOUND** within the 'CONTEXT', you MUST respond with: "` + Refusal + `"
5. Be concise and directly answer the question using details from the context if available.

**CONTEXT:**
`

// BuildPrompt embeds every chunk, separated by blank lines, and the verbatim
// query into the instruction template.
func BuildPrompt(query string, chunks []string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString(strings.Join(chunks, "\n\n"))
	b.WriteString("\n\n**USER QUESTION:** ")
	b.WriteString(query)
	b.WriteString(" [/INST]\n**ANSWER:**")
	return b.String()
}

var answerMarkers = []string{"[/INST]", "**ANSWER:**", "ANSWER:"}

// clean trims the raw completion and strips any leading echo of the prompt's
// closing markers, repeatedly, in any order.
func clean(raw string) string {
	out := strings.TrimSpace(raw)
	for {
		stripped := false
		for _, m := range answerMarkers {
			if strings.HasPrefix(out, m) {
				out = strings.TrimSpace(out[len(m):])
				stripped = true
			}
		}
		if !stripped {
			return out
		}
	}
}
