package moderation

import (
	"context"
	"math"
	"sort"

	"github.com/sashabaranov/go-openai"
)

// OpenAIClassifier delegates scoring to the OpenAI moderation endpoint.
type OpenAIClassifier struct {
	client *openai.Client
	model  string
	retry  retrier
}

func NewOpenAIClassifier(cfg OpenAIConfig) (*OpenAIClassifier, error) {
	if cfg.APIKey == "" {
		return nil, NewConfigError("openai api key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.ModerationTextLatest
	}

	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		retry:  newRetrier(cfg),
	}, nil
}

func (c *OpenAIClassifier) Classify(ctx context.Context, text string) (Result, error) {
	var resp openai.ModerationResponse
	err := c.retry.do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.client.Moderations(ctx, openai.ModerationRequest{
			Input: text,
			Model: c.model,
		})
		return err
	})
	if err != nil {
		return Result{}, err
	}
	if len(resp.Results) == 0 {
		return Result{}, NewProviderError("classify", "moderation response has no results", nil)
	}
	return resultFromModeration(resp.Results[0]), nil
}

type categoryScore struct {
	name    string
	flagged bool
	score   float32
}

func resultFromModeration(r openai.Result) Result {
	scores := []categoryScore{
		{"hate", r.Categories.Hate, r.CategoryScores.Hate},
		{"hate/threatening", r.Categories.HateThreatening, r.CategoryScores.HateThreatening},
		{"harassment", r.Categories.Harassment, r.CategoryScores.Harassment},
		{"harassment/threatening", r.Categories.HarassmentThreatening, r.CategoryScores.HarassmentThreatening},
		{"self-harm", r.Categories.SelfHarm, r.CategoryScores.SelfHarm},
		{"self-harm/intent", r.Categories.SelfHarmIntent, r.CategoryScores.SelfHarmIntent},
		{"self-harm/instructions", r.Categories.SelfHarmInstructions, r.CategoryScores.SelfHarmInstructions},
		{"sexual", r.Categories.Sexual, r.CategoryScores.Sexual},
		{"sexual/minors", r.Categories.SexualMinors, r.CategoryScores.SexualMinors},
		{"violence", r.Categories.Violence, r.CategoryScores.Violence},
		{"violence/graphic", r.Categories.ViolenceGraphic, r.CategoryScores.ViolenceGraphic},
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	matched := make([]string, 0)
	for _, s := range scores {
		if s.flagged {
			matched = append(matched, s.name)
		}
	}

	score := int(math.Round(float64(scores[0].score) * 100))
	if score > maxScore {
		score = maxScore
	}

	category := CategoryClean
	if r.Flagged || len(matched) > 0 {
		category = scores[0].name
	}

	return Result{
		Toxic:        r.Flagged || len(matched) > 0,
		Score:        score,
		MatchedTerms: matched,
		Category:     category,
	}
}
