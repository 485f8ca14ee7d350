package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
	"github.com/kirillkom/childcare-policy-rag/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	genModel   string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		genModel:   genModel,
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Profiler derives a one-shot document profile (category, tags, summary) from
// the opening pages of a document. The summary is later reused as the shared
// embedding context for every chunk of the document.
type Profiler struct {
	client *Client
}

func NewProfiler(client *Client) *Profiler {
	return &Profiler{client: client}
}

func (p *Profiler) Profile(ctx context.Context, text string) (domain.DocumentProfile, error) {
	respText, err := p.client.generateJSON(ctx, "profile", buildProfilePrompt(text))
	if err != nil {
		return domain.DocumentProfile{}, err
	}

	var result domain.DocumentProfile
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return domain.DocumentProfile{}, fmt.Errorf("parse profile json: %w", err)
	}
	if result.Tags == nil {
		result.Tags = []string{}
	}
	return result, nil
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := e.client.postResilient(ctx, "/api/embed", request, &response, "embed"); err != nil {
		return nil, err
	}
	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(response.Embeddings))
	}
	return response.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	return g.client.generateText(ctx, "answer", buildAnswerPrompt(question, chunks))
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generateText(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	if err := c.postResilient(ctx, "/api/generate", reqBody, &response, operation); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) postResilient(ctx context.Context, path string, payload any, out any, operation string) error {
	err := c.executor.Execute(ctx, "ollama_"+operation, func(ctx context.Context) error {
		return c.postJSON(ctx, path, payload, out, operation)
	}, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}

// extractJSONObject tolerates models that wrap the JSON body in prose or
// markdown fences.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
