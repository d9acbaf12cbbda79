// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"bytes"
	"sort"
	"strings"
	"text/template"

	"github.com/pdiddy/clout-engine/pkg/types"
)

// variantInstructions maps each variant to the style directive that biases
// generation. The set is closed: a new variant is a new entry here plus a
// new enum case, nothing more.
var variantInstructions = map[types.Variant]string{
	types.VariantThoughtLeadership:   "Write a senior thought-leadership piece: big-picture insights, implications, frameworks.",
	types.VariantStoryNarrative:      "Write a story-driven narrative: open with a concise anecdote or scene, then connect to insights.",
	types.VariantActionableFramework: "Write an actionable post with a clear framework or 3-5 tactical steps the reader can apply.",
}

// promptTmpl is the single prompt shape shared by all variants; only the
// label and instruction differ. The model must answer with a HEADLINE: line
// followed by a POST: section.
var promptTmpl = template.Must(template.New("draft").Parse(`You are a senior editorial content strategist who writes high-impact, human, long-form posts.

Variant: {{.Label}}
Style Instruction: {{.Instruction}}

Write a polished, original, human-sounding post of 700-1000 words. It must not
summarize the source material. Instead it must expand on its ideas, integrate
insights from both the source page and the external research below, and rely on
long, flowing paragraphs with a clear perspective. Do not mention that sources
were combined.

Key entities worth weaving in: {{.EntityHints}}

Use this combined text only as background knowledge:
========
{{.Context}}
========

Follow this exact output structure:

HEADLINE:
<one compelling headline, 5-12 words>

POST:
<the full post>

Do not place anything before HEADLINE: or after the post.
`))

type promptData struct {
	Label       string
	Instruction string
	EntityHints string
	Context     string
}

// buildPrompt renders the variant prompt over a bounded context assembled
// from the bundle and trims the final result to budget bytes.
func buildPrompt(bundle *types.ContextBundle, variant types.Variant, budget int) (string, error) {
	if budget <= 0 {
		budget = defaultContextBudget
	}

	seed := selectExcerpt(bundle.SeedText, bundle.Entities.Keywords, seedExcerptBudget)

	var competitors strings.Builder
	for _, r := range bundle.SearchResults {
		text, ok := bundle.CompetitorTexts[r.Link]
		if !ok {
			continue
		}
		if competitors.Len() >= competitorExcerptBudget {
			break
		}
		competitors.WriteString(selectExcerpt(text, bundle.Entities.Keywords,
			competitorExcerptBudget/len(bundle.CompetitorTexts)))
		competitors.WriteString("\n\n")
	}

	data := promptData{
		Label:       variant.Label(),
		Instruction: variantInstructions[variant],
		EntityHints: entityHints(bundle.Entities),
		Context:     seed + "\n\n" + strings.TrimSpace(competitors.String()),
	}

	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	// Last-safety trim so the prompt stays inside the model context window.
	prompt := buf.String()
	if len(prompt) > budget {
		prompt = prompt[:budget]
	}
	return prompt, nil
}

// entityHints joins the strongest extracted entities into one prompt line.
func entityHints(ent types.Entities) string {
	var hints []string
	hints = append(hints, ent.ProperNouns...)
	for i, k := range ent.Keywords {
		if i >= 5 {
			break
		}
		hints = append(hints, k.Term)
	}
	if len(hints) > 12 {
		hints = hints[:12]
	}
	return strings.Join(hints, ", ")
}

// selectExcerpt trims text to roughly budget bytes by keeping the sentences
// that mention the highest-frequency keywords, in their original order. The
// cut is deterministic: sentence scores depend only on the input, and ties
// keep document order.
func selectExcerpt(text string, keywords []types.Keyword, budget int) string {
	if len(text) <= budget {
		return text
	}

	top := make(map[string]bool)
	for i, k := range keywords {
		if i >= 10 {
			break
		}
		top[k.Term] = true
	}

	sentences := splitSentences(text)

	type scored struct {
		idx   int
		score int
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		lower := strings.ToLower(s)
		score := 0
		for term := range top {
			if strings.Contains(lower, term) {
				score++
			}
		}
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	keep := make(map[int]bool)
	used := 0
	for _, r := range ranked {
		cost := len(sentences[r.idx]) + 1
		if used+cost > budget {
			if used == 0 {
				// A single oversized sentence still gets kept; the final
				// hard trim below bounds it.
				keep[r.idx] = true
				used += cost
			}
			continue
		}
		keep[r.idx] = true
		used += cost
	}

	var b strings.Builder
	for i, s := range sentences {
		if !keep[i] {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s)
	}

	out := b.String()
	if len(out) > budget {
		out = out[:budget]
	}
	return out
}

// splitSentences splits on sentence terminators, keeping the terminator
// with its sentence. Newlines also break sentences.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}
