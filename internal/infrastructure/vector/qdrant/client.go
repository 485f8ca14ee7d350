package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/childcare-policy-rag/internal/core/domain"
)

const (
	denseVectorName  = "dense"
	sparseVectorName = "lexical"
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	encoder    *SparseEncoder

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string, encoder *SparseEncoder) *Client {
	if encoder == nil {
		encoder = NewSparseEncoder(0)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		encoder:    encoder,
	}
}

// ReplaceDocumentChunks writes a fresh generation of a document's chunks and
// then removes every prior generation, so concurrent readers never observe a
// document with its old chunks gone and the new ones not yet written. Chunks
// whose sparse vector violates the index contract are rejected individually;
// the rest of the document still lands.
func (c *Client) ReplaceDocumentChunks(
	ctx context.Context,
	doc *domain.Document,
	chunks []domain.Chunk,
	vectors [][]float32,
) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	generation := uuid.NewString()

	type point struct {
		ID      string         `json:"id"`
		Vector  map[string]any `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		sparse := c.encoder.Encode(chunk.Text)
		if !sparse.validate() {
			slog.Warn("chunk_rejected",
				"doc_id", chunk.DocumentID,
				"page", chunk.Page,
				"chunk_index", chunk.Seq,
				"reason", "invalid sparse vector",
			)
			continue
		}
		if len(vectors[i]) == 0 {
			slog.Warn("chunk_rejected",
				"doc_id", chunk.DocumentID,
				"page", chunk.Page,
				"chunk_index", chunk.Seq,
				"reason", "missing dense vector",
			)
			continue
		}

		points = append(points, point{
			ID: chunkPointID(chunk),
			Vector: map[string]any{
				denseVectorName:  vectors[i],
				sparseVectorName: sparse,
			},
			Payload: map[string]any{
				"doc_id":      chunk.DocumentID,
				"filename":    doc.Filename,
				"page":        chunk.Page,
				"chunk_index": chunk.Seq,
				"text":        chunk.Text,
				"generation":  generation,
			},
		})
	}
	if len(points) == 0 {
		return fmt.Errorf("no indexable chunks for document %s", doc.ID)
	}

	if err := c.doJSON(ctx, http.MethodPut, "/points?wait=true", map[string]any{"points": points}, nil, "upsert"); err != nil {
		return err
	}

	return c.deleteStaleGenerations(ctx, doc.ID, generation)
}

// chunkPointID derives a stable UUID from document, page and sequence, so
// re-ingesting a document upserts in place instead of accumulating duplicates.
func chunkPointID(chunk domain.Chunk) string {
	name := fmt.Sprintf("%s:%d:%d", chunk.DocumentID, chunk.Page, chunk.Seq)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (c *Client) deleteStaleGenerations(ctx context.Context, documentID, keepGeneration string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": documentID}},
			},
			"must_not": []map[string]any{
				{"key": "generation", "match": map[string]any{"value": keepGeneration}},
			},
		},
	}
	return c.doJSON(ctx, http.MethodPost, "/points/delete?wait=true", body, nil, "delete stale generations")
}

func (c *Client) SearchDense(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   denseVectorName,
			"vector": queryVector,
		},
		"limit":        limit,
		"with_payload": true,
	}
	applyFilter(reqBody, filter)
	return c.search(ctx, reqBody)
}

// SearchLexical encodes the raw query text with the sparse encoder and
// queries the lexical slot. A query with no lexical content returns no hits
// rather than an error.
func (c *Client) SearchLexical(
	ctx context.Context,
	queryText string,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	sparse := c.encoder.Encode(queryText)
	if sparse.IsEmpty() {
		return nil, nil
	}

	reqBody := map[string]any{
		"vector": map[string]any{
			"name":   sparseVectorName,
			"vector": sparse,
		},
		"limit":        limit,
		"with_payload": true,
	}
	applyFilter(reqBody, filter)
	return c.search(ctx, reqBody)
}

func applyFilter(reqBody map[string]any, filter domain.SearchFilter) {
	if filter.DocumentID == "" {
		return
	}
	reqBody["filter"] = map[string]any{
		"must": []map[string]any{
			{"key": "doc_id", "match": map[string]any{"value": filter.DocumentID}},
		},
	}
}

func (c *Client) search(ctx context.Context, reqBody map[string]any) ([]domain.RetrievedChunk, error) {
	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/points/search", reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		out = append(out, domain.RetrievedChunk{
			DocumentID: getStringPayload(r.Payload, "doc_id"),
			Filename:   getStringPayload(r.Payload, "filename"),
			Page:       getIntPayload(r.Payload, "page"),
			ChunkIndex: getIntPayload(r.Payload, "chunk_index"),
			Text:       getStringPayload(r.Payload, "text"),
			Score:      r.Score,
		})
	}
	return out, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			denseVectorName: map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
		},
		"sparse_vectors": map[string]any{
			sparseVectorName: map[string]any{},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	url := fmt.Sprintf("%s/collections/%s%s", c.baseURL, c.collection, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(respBody)); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
