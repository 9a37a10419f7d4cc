package domain

type KnowledgeEntry struct {
	ID         string   `db:"id" json:"id" yaml:"id,omitempty"`
	Category   string   `db:"category" json:"category" yaml:"category"`
	Question   string   `db:"question" json:"question" yaml:"question"`
	Answer     string   `db:"answer" json:"answer" yaml:"answer"`
	Keywords   []string `db:"-" json:"keywords" yaml:"keywords"`
	Confidence float64  `db:"confidence_score" json:"confidence_score" yaml:"confidence"`
	UsageCount int      `db:"usage_count" json:"usage_count" yaml:"-"`
	Active     bool     `db:"is_active" json:"is_active" yaml:"active"`
	CreatedAt  string   `db:"created_at" json:"created_at" yaml:"-"`
}

type Conversation struct {
	ID          string  `db:"id" json:"id"`
	SessionID   string  `db:"session_id" json:"session_id"`
	UserMessage string  `db:"user_message" json:"user_message"`
	BotResponse string  `db:"bot_response" json:"bot_response"`
	KnowledgeID string  `db:"knowledge_id" json:"knowledge_id,omitempty"`
	Confidence  float64 `db:"confidence" json:"confidence"`
	Matched     bool    `db:"matched" json:"matched"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

type LearningInsight struct {
	ID                 string  `db:"id" json:"id"`
	InsightType        string  `db:"insight_type" json:"insight_type"`
	Topic              string  `db:"topic" json:"topic"`
	KnowledgeID        string  `db:"knowledge_id" json:"knowledge_id,omitempty"`
	Frequency          int     `db:"frequency" json:"frequency"`
	EffectivenessScore float64 `db:"effectiveness_score" json:"effectiveness_score"`
	CreatedAt          string  `db:"created_at" json:"created_at"`
}

const (
	InsightKnowledgeGap  = "knowledge_gap"
	InsightEffectiveness = "effectiveness"
)

type AISettings struct {
	Enabled         bool    `json:"enabled"`
	Greeting        string  `json:"greeting" validate:"max=500"`
	FallbackMessage string  `json:"fallback_message" validate:"required,max=500"`
	MinConfidence   float64 `json:"min_confidence" validate:"gte=0,lte=1"`
}

func DefaultAISettings() AISettings {
	return AISettings{
		Enabled:         true,
		Greeting:        "Olá! Como posso ajudar?",
		FallbackMessage: "Desculpe, não entendi. Um atendente vai responder em breve.",
		MinConfidence:   0.3,
	}
}
