package services_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/domain"
	"superloja/internal/services"
)

const kbYAML = `
entries:
  - id: kb-frete
    category: entrega
    question: Qual o prazo de entrega?
    answer: Entregamos em até 5 dias úteis.
    keywords: [prazo, entrega, frete]
  - id: kb-troca
    question: Como faço uma troca?
    answer: Trocas em até 7 dias com nota fiscal.
    keywords: [troca, devolução]
    confidence: 0.9
`

func seedKB(t *testing.T, e *env) {
	t.Helper()
	n, err := e.chatbot.ImportYAML(context.Background(), strings.NewReader(kbYAML))
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestNormalizeAndTokenize(t *testing.T) {
	assert.Equal(t, "devolucao  e cafe ", services.Normalize("Devolução, é Café!"))
	assert.Equal(t, []string{"prazo", "entrega"}, services.Tokenize("Qual é o PRAZO de entrega? prazo"))
}

func TestScore(t *testing.T) {
	e := domain.KnowledgeEntry{Question: "Qual o prazo de entrega?", Keywords: []string{"prazo", "frete"}, Confidence: 1}
	assert.InDelta(t, 1.0, services.Score([]string{"prazo", "frete", "entrega"}, e), 1e-9)
	assert.InDelta(t, 0.5, services.Score([]string{"prazo"}, e), 1e-9)
	assert.Zero(t, services.Score(nil, e))

	e.Confidence = 0.5
	assert.InDelta(t, 0.25, services.Score([]string{"frete"}, e), 1e-9)
}

func TestChatbot_AnswerAndFallback(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedKB(t, e)

	r, err := e.chatbot.Answer(ctx, "s1", "Qual o prazo do frete?")
	require.NoError(t, err)
	assert.True(t, r.Matched)
	assert.Equal(t, "kb-frete", r.KnowledgeID)
	assert.Equal(t, "Entregamos em até 5 dias úteis.", r.Reply)

	r, err = e.chatbot.Answer(ctx, "s1", "vocês vendem bicicleta?")
	require.NoError(t, err)
	assert.False(t, r.Matched)
	assert.Equal(t, domain.DefaultAISettings().FallbackMessage, r.Reply)

	_, err = e.chatbot.Answer(ctx, "s1", "   ")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	list, err := e.chatbot.ListKnowledge(ctx)
	require.NoError(t, err)
	for _, k := range list {
		if k.ID == "kb-frete" {
			assert.Equal(t, 1, k.UsageCount)
		}
	}

	conv, err := e.chatbot.Conversations(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, conv, 2)
}

func TestChatbot_Disabled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	st, err := e.settings.Load(ctx)
	require.NoError(t, err)
	st.ChatbotEnabled = false
	require.NoError(t, e.settings.Save(ctx, st))

	_, err = e.chatbot.Greeting(ctx)
	assert.ErrorIs(t, err, services.ErrChatbotDisabled)
	_, err = e.chatbot.Answer(ctx, "s1", "oi")
	assert.ErrorIs(t, err, services.ErrChatbotDisabled)
}

func TestChatbot_FeedbackAndInsights(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedKB(t, e)

	hit, err := e.chatbot.Answer(ctx, "s1", "prazo de entrega")
	require.NoError(t, err)
	require.True(t, hit.Matched)
	hit2, err := e.chatbot.Answer(ctx, "s2", "frete e prazo")
	require.NoError(t, err)
	require.True(t, hit2.Matched)
	for _, msg := range []string{"tem cupom de desconto?", "cupom", "aceita boleto?"} {
		_, err := e.chatbot.Answer(ctx, "s3", msg)
		require.NoError(t, err)
	}

	require.NoError(t, e.chatbot.Feedback(ctx, hit.ConversationID, true, "valeu"))
	require.NoError(t, e.chatbot.Feedback(ctx, hit2.ConversationID, false, ""))
	assert.ErrorIs(t, e.chatbot.Feedback(ctx, "nope", true, ""), services.ErrNotFound)

	out, err := e.chatbot.Recompute(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	var gaps = map[string]int{}
	var eff *domain.LearningInsight
	for i, in := range out {
		switch in.InsightType {
		case domain.InsightKnowledgeGap:
			gaps[in.Topic] = in.Frequency
		case domain.InsightEffectiveness:
			eff = &out[i]
		}
	}
	assert.Equal(t, 2, gaps["cupom"])
	assert.Equal(t, 1, gaps["boleto"])
	require.NotNil(t, eff)
	assert.Equal(t, "kb-frete", eff.KnowledgeID)
	assert.Equal(t, 2, eff.Frequency)
	assert.InDelta(t, 0.5, eff.EffectivenessScore, 1e-9)

	stored, err := e.chatbot.Insights(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, len(out))
}

func TestChatbot_KnowledgeCRUDAndYAML(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seedKB(t, e)

	k, err := e.chatbot.SaveKnowledge(ctx, "", services.KnowledgeInput{
		Question: "Vocês aceitam pix?",
		Answer:   "Sim, aceitamos pix.",
		Keywords: []string{"pix", " pagamento ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "geral", k.Category)
	assert.Equal(t, []string{"pix", "pagamento"}, k.Keywords)
	assert.True(t, k.Active)

	_, err = e.chatbot.SaveKnowledge(ctx, "missing", services.KnowledgeInput{Question: "q", Answer: "a"})
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = e.chatbot.SaveKnowledge(ctx, "", services.KnowledgeInput{Question: "sem resposta"})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	var buf bytes.Buffer
	require.NoError(t, e.chatbot.ExportYAML(ctx, &buf))
	assert.Contains(t, buf.String(), "kb-troca")

	other := newEnv(t)
	n, err := other.chatbot.ImportYAML(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = other.chatbot.ImportYAML(ctx, strings.NewReader("entries:\n  - question: x\n    answer: y\n    colour: red\n"))
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	require.NoError(t, e.chatbot.DeleteKnowledge(ctx, k.ID))
	list, err := e.chatbot.ListKnowledge(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
