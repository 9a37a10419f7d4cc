package repos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"superloja/internal/domain"
)

type AIRepo struct{ db Querier }

func NewAIRepo(db *sqlx.DB) *AIRepo { return &AIRepo{db: db} }

func (r *AIRepo) WithTx(tx *sqlx.Tx) *AIRepo { return &AIRepo{db: tx} }

type knowledgeRow struct {
	domain.KnowledgeEntry
	KeywordsJSON string `db:"keywords_json"`
}

func (k knowledgeRow) entry() domain.KnowledgeEntry {
	e := k.KnowledgeEntry
	e.Keywords = []string{}
	_ = json.Unmarshal([]byte(k.KeywordsJSON), &e.Keywords)
	return e
}

const knowledgeCols = `id, category, question, answer, keywords_json, confidence_score, usage_count, is_active, created_at`

func (r *AIRepo) Knowledge(ctx context.Context, activeOnly bool) ([]domain.KnowledgeEntry, error) {
	q := `SELECT ` + knowledgeCols + ` FROM ai_knowledge_base`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY category, question`
	var rows []knowledgeRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := make([]domain.KnowledgeEntry, 0, len(rows))
	for _, k := range rows {
		out = append(out, k.entry())
	}
	return out, nil
}

func (r *AIRepo) KnowledgeByID(ctx context.Context, id string) (domain.KnowledgeEntry, error) {
	var k knowledgeRow
	if err := r.db.GetContext(ctx, &k, `SELECT `+knowledgeCols+` FROM ai_knowledge_base WHERE id = ?`, id); err != nil {
		return domain.KnowledgeEntry{}, notFound(err)
	}
	return k.entry(), nil
}

// SaveKnowledge inserts or replaces an entry by id.
func (r *AIRepo) SaveKnowledge(ctx context.Context, e domain.KnowledgeEntry) error {
	if e.Keywords == nil {
		e.Keywords = []string{}
	}
	kw, err := json.Marshal(e.Keywords)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
	  INSERT INTO ai_knowledge_base(id, category, question, answer, keywords_json, confidence_score, is_active, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	  ON CONFLICT(id) DO UPDATE SET
	    category = excluded.category, question = excluded.question, answer = excluded.answer,
	    keywords_json = excluded.keywords_json, confidence_score = excluded.confidence_score,
	    is_active = excluded.is_active`,
		e.ID, e.Category, e.Question, e.Answer, string(kw), e.Confidence, e.Active, TS(time.Now()))
	return err
}

func (r *AIRepo) DeleteKnowledge(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM ai_knowledge_base WHERE id = ?`, id))
}

func (r *AIRepo) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE ai_knowledge_base SET usage_count = usage_count + 1 WHERE id = ?`, id)
	return err
}

func (r *AIRepo) InsertConversation(ctx context.Context, c domain.Conversation) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO ai_conversations(id, session_id, user_message, bot_response, knowledge_id, confidence, matched, created_at)
	  VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.SessionID, c.UserMessage, c.BotResponse, c.KnowledgeID, c.Confidence, c.Matched, c.CreatedAt)
	return err
}

func (r *AIRepo) Conversations(ctx context.Context, since time.Time, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Conversation{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, session_id, user_message, bot_response, knowledge_id, confidence, matched, created_at
	  FROM ai_conversations WHERE created_at >= ?
	  ORDER BY created_at DESC LIMIT ?`, TS(since), limit)
	return out, err
}

func (r *AIRepo) ConversationExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM ai_conversations WHERE id = ?`, id)
	return n > 0, err
}

// SaveFeedback keeps the latest verdict per conversation.
func (r *AIRepo) SaveFeedback(ctx context.Context, conversationID string, helpful bool, comment string) error {
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO ai_feedback(conversation_id, helpful, comment, created_at) VALUES(?, ?, ?, ?)
	  ON CONFLICT(conversation_id) DO UPDATE SET helpful = excluded.helpful, comment = excluded.comment,
	    created_at = excluded.created_at`,
		conversationID, helpful, comment, TS(time.Now()))
	return err
}

// UnmatchedMessages groups the lowercase user messages the bot could not answer.
type UnmatchedMessage struct {
	Message string `db:"message"`
	Count   int    `db:"n"`
}

func (r *AIRepo) Unmatched(ctx context.Context, since time.Time, minCount int) ([]UnmatchedMessage, error) {
	out := []UnmatchedMessage{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT LOWER(TRIM(user_message)) AS message, COUNT(*) AS n
	  FROM ai_conversations
	  WHERE matched = 0 AND created_at >= ?
	  GROUP BY LOWER(TRIM(user_message))
	  HAVING COUNT(*) >= ?
	  ORDER BY n DESC, message`, TS(since), minCount)
	return out, err
}

type FeedbackTally struct {
	KnowledgeID string `db:"knowledge_id"`
	Total       int    `db:"total"`
	Helpful     int    `db:"helpful"`
}

func (r *AIRepo) FeedbackByKnowledge(ctx context.Context, since time.Time) ([]FeedbackTally, error) {
	out := []FeedbackTally{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT c.knowledge_id AS knowledge_id, COUNT(*) AS total, COALESCE(SUM(f.helpful), 0) AS helpful
	  FROM ai_feedback f JOIN ai_conversations c ON c.id = f.conversation_id
	  WHERE c.knowledge_id <> '' AND f.created_at >= ?
	  GROUP BY c.knowledge_id
	  ORDER BY c.knowledge_id`, TS(since))
	return out, err
}

// ReplaceInsights swaps the stored insights for a freshly computed set.
func (r *AIRepo) ReplaceInsights(ctx context.Context, list []domain.LearningInsight) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM ai_learning_insights`); err != nil {
		return err
	}
	for _, in := range list {
		if _, err := r.db.ExecContext(ctx, `
		  INSERT INTO ai_learning_insights(id, insight_type, topic, knowledge_id, frequency, effectiveness_score, created_at)
		  VALUES(?, ?, ?, ?, ?, ?, ?)`,
			in.ID, in.InsightType, in.Topic, in.KnowledgeID, in.Frequency, in.EffectivenessScore, in.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *AIRepo) Insights(ctx context.Context) ([]domain.LearningInsight, error) {
	out := []domain.LearningInsight{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, insight_type, topic, knowledge_id, frequency, effectiveness_score, created_at
	  FROM ai_learning_insights ORDER BY insight_type, frequency DESC, topic`)
	return out, err
}
