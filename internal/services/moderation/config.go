package moderation

import (
	"strings"
	"time"
)

const (
	ProviderKeyword = "keyword"
	ProviderOpenAI  = "openai"
)

const (
	DefaultChatThreshold    = 60
	DefaultCommentThreshold = 80
)

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string

	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

type Config struct {
	Provider         string
	BannedTerms      []string
	ChatThreshold    int
	CommentThreshold int
	OpenAI           OpenAIConfig
}

func DefaultConfig() Config {
	return Config{
		Provider:         ProviderKeyword,
		BannedTerms:      DefaultBannedTerms,
		ChatThreshold:    DefaultChatThreshold,
		CommentThreshold: DefaultCommentThreshold,
		OpenAI: OpenAIConfig{
			MaxRetries: DefaultMaxRetries,
			RetryDelay: DefaultRetryDelay,
			Timeout:    DefaultRequestTimeout,
		},
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderKeyword, "":
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return NewConfigError("openai provider requires an api key")
		}
	default:
		return NewConfigError("unknown moderation provider: " + c.Provider)
	}
	if c.ChatThreshold < 0 || c.ChatThreshold > maxScore {
		return NewConfigError("chat threshold must be between 0 and 100")
	}
	if c.CommentThreshold < 0 || c.CommentThreshold > maxScore {
		return NewConfigError("comment threshold must be between 0 and 100")
	}
	return nil
}

// NewClassifier builds the classifier selected by cfg.Provider.
func NewClassifier(cfg Config) (Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.EqualFold(cfg.Provider, ProviderOpenAI) {
		return NewOpenAIClassifier(cfg.OpenAI)
	}
	return NewKeywordClassifier(cfg.BannedTerms...), nil
}
