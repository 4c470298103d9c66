package nlfilter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/urbanfabric/building-explorer/internal/model"
)

const llmTimeout = 30 * time.Second

// only the first fenced json block in the completion is considered
var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

const promptTemplate = `You are a helpful assistant. Convert the following natural language filter query to a JSON object.

Query: "%s"

Available attributes:
- height (building height in meters)
- rooftop_elev_z (roof elevation above sea level)
- grd_elev_min_z (min ground elevation above sea level)
- grd_elev_max_z (max ground elevation above sea level)
- land_use (land use type / land code of the building)

- larger,bigger,above,taller, greater than: >
- smaller,shorter,below,less than: <
- is: ==

Respond only with JSON like: {"attribute": "height", "operator": ">", "value": 100}`

// LLMExtractor asks an OpenAI-compatible chat-completions endpoint (the
// Hugging Face router in production) to derive a predicate.
type LLMExtractor struct {
	logger *slog.Logger
	client *openai.Client
	model  string
}

// NewLLMExtractor returns nil when no API token is configured; the caller
// then runs with the rule-based strategy alone.
func NewLLMExtractor(logger *slog.Logger, baseURL, modelName, token string) *LLMExtractor {
	if token == "" {
		logger.Warn("no LLM API token configured, model-based extraction disabled")
		return nil
	}
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = baseURL
	return &LLMExtractor{
		logger: logger,
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

// Extract asks the model and parses the first fenced JSON block out of the
// free-text completion. Every failure mode collapses to ok=false; absent is
// an expected outcome here, never an error.
func (e *LLMExtractor) Extract(ctx context.Context, query string) (model.Predicate, bool) {
	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(promptTemplate, query)},
		},
	})
	if err != nil {
		e.logger.Warn("llm call failed", "err", err)
		return model.Predicate{}, false
	}
	if len(resp.Choices) == 0 {
		e.logger.Warn("llm returned no choices")
		return model.Predicate{}, false
	}

	content := resp.Choices[0].Message.Content
	m := fencedJSON.FindStringSubmatch(content)
	if m == nil {
		e.logger.Debug("no fenced json block in llm response")
		return model.Predicate{}, false
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(m[1]), &raw); err != nil {
		e.logger.Debug("invalid json in llm response", "err", err)
		return model.Predicate{}, false
	}
	if len(raw) != 3 {
		return model.Predicate{}, false
	}
	attr, okA := raw["attribute"].(string)
	op, okO := raw["operator"].(string)
	val, okV := raw["value"]
	if !okA || !okO || !okV {
		return model.Predicate{}, false
	}

	p := model.Predicate{Attribute: attr, Operator: model.Operator(op), Value: val}
	if !p.Valid() {
		e.logger.Debug("llm predicate outside allow-list", "attribute", attr, "operator", op)
		return model.Predicate{}, false
	}
	return p, true
}
