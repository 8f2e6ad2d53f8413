package llm

import (
	"strings"

	"github.com/finzap/finzap/pkg/knowledge"
)

const systemPrompt = `Você é um assistente financeiro pessoal que conversa por WhatsApp.
Responda em português, de forma curta e prática. Use o contexto fornecido
quando ele for relevante; se não souber, diga que não sabe. Nunca invente
números ou promessas de rendimento.`

// BuildPrompt assembles the chat messages for a user question, folding in as
// many retrieved passages as fit within contextBudget tokens. Passages are
// assumed best-first, so trimming drops the least relevant ones.
func BuildPrompt(question string, passages []knowledge.Passage, contextBudget int) []Message {
	var kept []string
	used := 0
	for _, p := range passages {
		cost := CountTokens(p.Text)
		if used+cost > contextBudget {
			break
		}
		kept = append(kept, p.Text)
		used += cost
	}

	var b strings.Builder
	if len(kept) > 0 {
		b.WriteString("Contexto:\n")
		for _, text := range kept {
			b.WriteString("- ")
			b.WriteString(text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Pergunta: ")
	b.WriteString(question)

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}
}
