package moderation

import (
	"context"
	"fmt"
)

// Logger is the logging surface the gate needs.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// Verdict is the outcome of a gate review. Allowed is false when the score
// reaches the context threshold.
type Verdict struct {
	Allowed   bool   `json:"allowed"`
	Threshold int    `json:"threshold"`
	Result    Result `json:"result"`
}

// Gate applies per-context thresholds on top of a Classifier.
type Gate struct {
	classifier       Classifier
	chatThreshold    int
	commentThreshold int
	logger           Logger
}

func NewGate(classifier Classifier, cfg Config, logger Logger) *Gate {
	if cfg.ChatThreshold == 0 {
		cfg.ChatThreshold = DefaultChatThreshold
	}
	if cfg.CommentThreshold == 0 {
		cfg.CommentThreshold = DefaultCommentThreshold
	}
	return &Gate{
		classifier:       classifier,
		chatThreshold:    cfg.ChatThreshold,
		commentThreshold: cfg.CommentThreshold,
		logger:           logger,
	}
}

// Classify runs the raw classifier with no threshold applied.
func (g *Gate) Classify(ctx context.Context, text string) (Result, error) {
	return g.classifier.Classify(ctx, text)
}

func (g *Gate) ReviewChat(ctx context.Context, text string) (Verdict, error) {
	return g.review(ctx, "chat", text, g.chatThreshold)
}

func (g *Gate) ReviewComment(ctx context.Context, text string) (Verdict, error) {
	return g.review(ctx, "comment", text, g.commentThreshold)
}

func (g *Gate) review(ctx context.Context, kind, text string, threshold int) (Verdict, error) {
	res, err := g.classifier.Classify(ctx, text)
	if err != nil {
		g.logger.Error("Moderation classify failed", "kind", kind, "error", err)
		return Verdict{}, fmt.Errorf("review %s: %w", kind, err)
	}

	v := Verdict{Allowed: res.Score < threshold, Threshold: threshold, Result: res}
	if !v.Allowed {
		g.logger.Info("Content blocked", "kind", kind, "score", res.Score, "category", res.Category)
	}
	return v, nil
}
