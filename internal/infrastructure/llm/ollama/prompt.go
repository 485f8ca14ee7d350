package ollama

import (
	"fmt"
	"strings"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

func buildProfilePrompt(text string) string {
	const maxSnippet = 4000
	snippet := text
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are profiling a childcare assistance policy document.
Return strict JSON object with keys:
category (string), tags (array of strings), confidence (number from 0 to 1), summary (string, one or two sentences describing what the document covers).
No markdown, no extra keys.

Document:
` + snippet
}

func buildAnswerPrompt(question string, chunks []domain.RetrievedChunk) string {
	var contextBuilder strings.Builder
	for idx, chunk := range chunks {
		contextBuilder.WriteString(fmt.Sprintf(
			"[%d] file=%s page=%d\n%s\n\n",
			idx+1,
			chunk.Filename,
			chunk.Page+1,
			chunk.Text,
		))
	}

	return fmt.Sprintf(`Answer the user question only from the context below.
Cite passages by their [number]. Quote dollar amounts, percentages and dates exactly as written.
If the context is insufficient, say so directly.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}

func buildJudgePrompt(question, passage string) string {
	return fmt.Sprintf(`Rate how relevant the passage is for answering the question.
Reply with a single integer from 0 to 10 and nothing else.
0 means unrelated, 10 means the passage directly answers the question.

Question:
%s

Passage:
%s
`, question, passage)
}
