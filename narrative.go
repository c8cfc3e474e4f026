package clusterlens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrNoAPIKey is returned when narrative generation is requested without an
// OpenAI API key configured.
var ErrNoAPIKey = errors.New("no OpenAI API key configured")

// NarrativeSummary is the structured response from OpenAI for the narrative
// section of a report.
type NarrativeSummary struct {
	Headline  string   `json:"headline" jsonschema:"description=One-sentence headline of the most important finding"`
	Narrative string   `json:"narrative" jsonschema:"description=Plain-language narrative of the clustering results for a non-technical reader"`
	NextSteps []string `json:"next_steps" jsonschema:"description=Concrete next steps ordered by impact"`
}

// GenerateNarrative asks OpenAI to write a plain-language narrative of an
// analysis using structured outputs. Returns ErrNoAPIKey when no key is set.
func GenerateNarrative(result *ClusteringResult, analysis *ClusterAnalysis) (*NarrativeSummary, error) {
	apiKey := Config.OpenAIAPIKey
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	payload, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}

	// Generate JSON schema for structured output
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaObj := reflector.Reflect(&NarrativeSummary{})
	if schemaObj.Type == "" {
		schemaObj.Type = "object"
	}

	schemaBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := Config.OpenAIModel
	if model == "" {
		model = openai.ChatModelGPT4_1
	}

	systemContent := `You are an expert at explaining clustering results to non-technical readers.

Your tasks:
1. Write a one-sentence headline naming the most important finding
2. Write a short narrative explaining the clusters in plain language
3. List concrete next steps ordered by impact

WRITING RULES:
- Use simple sentences
- Avoid statistics jargon
- Refer to clusters by their ids
- Keep the narrative under 200 words`
	userContent := fmt.Sprintf("Dataset %q was clustered with %s. Explain this analysis:\n\n%s",
		result.DatasetName, result.Algorithm, string(payload))

	chatCompletion, err := client.Chat.Completions.New(context.TODO(), openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemContent),
			openai.UserMessage(userContent),
		},
		Model:       model,
		MaxTokens:   openai.Int(1000),
		Temperature: openai.Float(0.1),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "narrative_summary",
					Description: openai.String("Plain-language narrative of a clustering analysis"),
					Schema:      schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	if len(chatCompletion.Choices) == 0 || chatCompletion.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no content in narrative response")
	}

	var narrative NarrativeSummary
	if err := json.Unmarshal([]byte(chatCompletion.Choices[0].Message.Content), &narrative); err != nil {
		return nil, fmt.Errorf("failed to parse narrative response: %w", err)
	}
	return &narrative, nil
}

// formatNarrative appends the AI narrative as a markdown section.
func formatNarrative(narrative *NarrativeSummary) string {
	var b strings.Builder
	b.WriteString("## Narrative Summary\n\n")
	fmt.Fprintf(&b, "**%s**\n\n", narrative.Headline)
	b.WriteString(narrative.Narrative)
	b.WriteString("\n\n")
	if len(narrative.NextSteps) > 0 {
		b.WriteString("Next steps:\n\n")
		for _, step := range narrative.NextSteps {
			fmt.Fprintf(&b, "- %s\n", step)
		}
		b.WriteString("\n")
	}
	return b.String()
}
