package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"superloja/internal/domain"
	"superloja/internal/metrics"
	"superloja/internal/repos"
	"superloja/internal/validate"
)

const maxChatMessage = 500

var stopWords = map[string]bool{
	"a": true, "o": true, "as": true, "os": true, "de": true, "da": true, "do": true, "das": true,
	"dos": true, "e": true, "em": true, "no": true, "na": true, "nos": true, "nas": true, "um": true,
	"uma": true, "para": true, "pra": true, "por": true, "com": true, "que": true, "qual": true,
	"quais": true, "como": true, "meu": true, "minha": true, "eu": true, "voce": true, "se": true,
	"ao": true, "ou": true, "mais": true, "tem": true, "ter": true, "sao": true,
	"oi": true, "ola": true, "the": true, "is": true, "to": true, "my": true,
}

// Normalize lowercases s, drops accents and turns anything but letters and digits into spaces.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, out)
}

// Tokenize returns the distinct meaningful words of s in first-seen order.
func Tokenize(s string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range strings.Fields(Normalize(s)) {
		if len(w) < 2 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// Score is |tokens ∩ (keywords ∪ question words)| / |keywords|, capped at 1 and weighted by
// the entry's confidence. Entries without keywords are measured against the question words.
func Score(tokens []string, e domain.KnowledgeEntry) float64 {
	keywords := map[string]bool{}
	for _, k := range e.Keywords {
		for _, t := range Tokenize(k) {
			keywords[t] = true
		}
	}
	vocab := map[string]bool{}
	for k := range keywords {
		vocab[k] = true
	}
	qwords := Tokenize(e.Question)
	for _, t := range qwords {
		vocab[t] = true
	}
	denom := len(keywords)
	if denom == 0 {
		denom = len(qwords)
	}
	if denom == 0 || len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if vocab[t] {
			hits++
		}
	}
	ratio := float64(hits) / float64(denom)
	if ratio > 1 {
		ratio = 1
	}
	return ratio * e.Confidence
}

type ChatbotService struct {
	DB       *sqlx.DB
	AI       *repos.AIRepo
	Settings *SettingsService
	Now      func() time.Time
}

func NewChatbotService(db *sqlx.DB, settings *SettingsService) *ChatbotService {
	return &ChatbotService{DB: db, AI: repos.NewAIRepo(db), Settings: settings, Now: time.Now}
}

func (s *ChatbotService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

type ChatReply struct {
	ConversationID string  `json:"conversation_id"`
	Reply          string  `json:"reply"`
	Matched        bool    `json:"matched"`
	KnowledgeID    string  `json:"knowledge_id,omitempty"`
	Confidence     float64 `json:"confidence"`
}

// Greeting returns the opening line, or ErrChatbotDisabled.
func (s *ChatbotService) Greeting(ctx context.Context) (string, error) {
	ai, err := s.enabled(ctx)
	if err != nil {
		return "", err
	}
	return ai.Greeting, nil
}

func (s *ChatbotService) enabled(ctx context.Context) (domain.AISettings, error) {
	ai, err := s.Settings.LoadAI(ctx)
	if err != nil {
		return ai, err
	}
	store, err := s.Settings.Load(ctx)
	if err != nil {
		return ai, err
	}
	if !ai.Enabled || !store.ChatbotEnabled {
		return ai, ErrChatbotDisabled
	}
	return ai, nil
}

// Answer replies from the best-scoring knowledge entry or with the fallback message.
// Every exchange is stored as a conversation row.
func (s *ChatbotService) Answer(ctx context.Context, sessionID, message string) (ChatReply, error) {
	ai, err := s.enabled(ctx)
	if err != nil {
		return ChatReply{}, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatReply{}, fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if r := []rune(message); len(r) > maxChatMessage {
		message = string(r[:maxChatMessage])
	}

	entries, err := s.AI.Knowledge(ctx, true)
	if err != nil {
		return ChatReply{}, err
	}
	tokens := Tokenize(message)
	var best *domain.KnowledgeEntry
	bestScore := 0.0
	for i := range entries {
		if sc := Score(tokens, entries[i]); sc > bestScore {
			best, bestScore = &entries[i], sc
		}
	}

	reply := ChatReply{ConversationID: uuid.NewString(), Reply: ai.FallbackMessage, Confidence: bestScore}
	if best != nil && bestScore >= ai.MinConfidence {
		reply.Reply = best.Answer
		reply.Matched = true
		reply.KnowledgeID = best.ID
	}

	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		ai := s.AI.WithTx(tx)
		if reply.Matched {
			if err := ai.IncrementUsage(ctx, reply.KnowledgeID); err != nil {
				return err
			}
		}
		return ai.InsertConversation(ctx, domain.Conversation{
			ID:          reply.ConversationID,
			SessionID:   sessionID,
			UserMessage: message,
			BotResponse: reply.Reply,
			KnowledgeID: reply.KnowledgeID,
			Confidence:  reply.Confidence,
			Matched:     reply.Matched,
			CreatedAt:   repos.TS(s.now()),
		})
	})
	if err != nil {
		return ChatReply{}, err
	}
	if reply.Matched {
		metrics.ChatAnswers.WithLabelValues("matched").Inc()
	} else {
		metrics.ChatAnswers.WithLabelValues("fallback").Inc()
	}
	return reply, nil
}

func (s *ChatbotService) Feedback(ctx context.Context, conversationID string, helpful bool, comment string) error {
	ok, err := s.AI.ConversationExists(ctx, conversationID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	comment = strings.TrimSpace(comment)
	if r := []rune(comment); len(r) > maxChatMessage {
		comment = string(r[:maxChatMessage])
	}
	return s.AI.SaveFeedback(ctx, conversationID, helpful, comment)
}

// Recompute rebuilds the learning insights from conversations since the given time:
// word frequencies over unanswered questions, and helpful/total per knowledge entry.
func (s *ChatbotService) Recompute(ctx context.Context, since time.Time) ([]domain.LearningInsight, error) {
	unmatched, err := s.AI.Unmatched(ctx, since, 1)
	if err != nil {
		return nil, err
	}
	tallies, err := s.AI.FeedbackByKnowledge(ctx, since)
	if err != nil {
		return nil, err
	}
	entries, err := s.AI.Knowledge(ctx, false)
	if err != nil {
		return nil, err
	}
	questions := map[string]string{}
	for _, e := range entries {
		questions[e.ID] = e.Question
	}

	now := repos.TS(s.now())
	freq := map[string]int{}
	for _, m := range unmatched {
		for _, t := range Tokenize(m.Message) {
			freq[t] += m.Count
		}
	}
	topics := make([]string, 0, len(freq))
	for t := range freq {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		if freq[topics[i]] != freq[topics[j]] {
			return freq[topics[i]] > freq[topics[j]]
		}
		return topics[i] < topics[j]
	})
	if len(topics) > 20 {
		topics = topics[:20]
	}

	out := make([]domain.LearningInsight, 0, len(topics)+len(tallies))
	for _, t := range topics {
		out = append(out, domain.LearningInsight{
			ID: uuid.NewString(), InsightType: domain.InsightKnowledgeGap, Topic: t, Frequency: freq[t], CreatedAt: now,
		})
	}
	for _, t := range tallies {
		if t.Total == 0 {
			continue
		}
		topic := questions[t.KnowledgeID]
		if topic == "" {
			topic = t.KnowledgeID
		}
		out = append(out, domain.LearningInsight{
			ID:                 uuid.NewString(),
			InsightType:        domain.InsightEffectiveness,
			Topic:              topic,
			KnowledgeID:        t.KnowledgeID,
			Frequency:          t.Total,
			EffectivenessScore: float64(t.Helpful) / float64(t.Total),
			CreatedAt:          now,
		})
	}
	err = repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		return s.AI.WithTx(tx).ReplaceInsights(ctx, out)
	})
	return out, err
}

func (s *ChatbotService) Insights(ctx context.Context) ([]domain.LearningInsight, error) {
	return s.AI.Insights(ctx)
}

func (s *ChatbotService) Conversations(ctx context.Context, since time.Time) ([]domain.Conversation, error) {
	return s.AI.Conversations(ctx, since, 200)
}

// ---------- knowledge base ----------

type KnowledgeInput struct {
	Category   string   `json:"category" yaml:"category" validate:"max=40"`
	Question   string   `json:"question" yaml:"question" validate:"required,max=300"`
	Answer     string   `json:"answer" yaml:"answer" validate:"required,max=2000"`
	Keywords   []string `json:"keywords" yaml:"keywords" validate:"max=30,dive,max=40"`
	Confidence *float64 `json:"confidence_score" yaml:"confidence" validate:"omitempty,gte=0,lte=1"`
	Active     *bool    `json:"is_active" yaml:"active"`
}

func (in KnowledgeInput) entry(id string) (domain.KnowledgeEntry, error) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	in.Category = strings.TrimSpace(in.Category)
	if err := validate.Struct(in); err != nil {
		return domain.KnowledgeEntry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	e := domain.KnowledgeEntry{
		ID:         id,
		Category:   in.Category,
		Question:   in.Question,
		Answer:     in.Answer,
		Keywords:   []string{},
		Confidence: 1,
		Active:     true,
	}
	if e.Category == "" {
		e.Category = "geral"
	}
	for _, k := range in.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			e.Keywords = append(e.Keywords, k)
		}
	}
	if in.Confidence != nil {
		e.Confidence = *in.Confidence
	}
	if in.Active != nil {
		e.Active = *in.Active
	}
	return e, nil
}

func (s *ChatbotService) ListKnowledge(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	return s.AI.Knowledge(ctx, false)
}

// SaveKnowledge creates an entry when id is empty, otherwise replaces the existing one.
func (s *ChatbotService) SaveKnowledge(ctx context.Context, id string, in KnowledgeInput) (domain.KnowledgeEntry, error) {
	if id == "" {
		id = uuid.NewString()
	} else if _, err := s.AI.KnowledgeByID(ctx, id); err != nil {
		return domain.KnowledgeEntry{}, err
	}
	e, err := in.entry(id)
	if err != nil {
		return domain.KnowledgeEntry{}, err
	}
	if err := s.AI.SaveKnowledge(ctx, e); err != nil {
		return domain.KnowledgeEntry{}, err
	}
	return s.AI.KnowledgeByID(ctx, id)
}

func (s *ChatbotService) DeleteKnowledge(ctx context.Context, id string) error {
	return s.AI.DeleteKnowledge(ctx, id)
}

type knowledgeFile struct {
	Entries []struct {
		ID             string `yaml:"id"`
		KnowledgeInput `yaml:",inline"`
	} `yaml:"entries"`
}

// ImportYAML loads entries from a document shaped as {entries: [...]}. Entries with an id
// replace the stored one; the rest are added. The whole file commits or nothing does.
func (s *ChatbotService) ImportYAML(ctx context.Context, r io.Reader) (int, error) {
	var f knowledgeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	entries := make([]domain.KnowledgeEntry, 0, len(f.Entries))
	for i, raw := range f.Entries {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			id = uuid.NewString()
		}
		e, err := raw.KnowledgeInput.entry(id)
		if err != nil {
			return 0, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	err := repos.InTx(ctx, s.DB, func(tx *sqlx.Tx) error {
		ai := s.AI.WithTx(tx)
		for _, e := range entries {
			if err := ai.SaveKnowledge(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ExportYAML writes the knowledge base in the format ImportYAML reads.
func (s *ChatbotService) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := s.AI.Knowledge(ctx, false)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"entries": entries}); err != nil {
		return err
	}
	return enc.Close()
}
