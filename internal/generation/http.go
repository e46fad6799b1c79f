package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/draftforge/draftforge/internal/compose"
	"github.com/draftforge/draftforge/internal/store/model"
)

// HTTPProducer is an HTTP client for the generation provider.
type HTTPProducer struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Producer = (*HTTPProducer)(nil)

func NewHTTPProducer(baseURL, token string, timeout time.Duration) *HTTPProducer {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPProducer{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type produceRequest struct {
	SectionType  string            `json:"sectionType"`
	Title        string            `json:"title,omitempty"`
	Instructions string            `json:"instructions,omitempty"`
	TargetWords  int               `json:"targetWords,omitempty"`
	Materials    []produceMaterial `json:"materials"`
}

type produceMaterial struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Body string `json:"body"`
}

type produceResponse struct {
	Body      string `json:"body"`
	WordCount int    `json:"wordCount"`
}

func (p *HTTPProducer) Produce(ctx context.Context, req compose.SectionRequest, materials model.MaterialList) (*model.DocumentContent, error) {
	payload := produceRequest{
		SectionType:  req.Type,
		Title:        req.Title,
		Instructions: req.Instructions,
		TargetWords:  req.TargetWords,
		Materials:    make([]produceMaterial, 0, len(materials)),
	}
	for _, m := range materials {
		payload.Materials = append(payload.Materials, produceMaterial{Name: m.Name, Kind: m.Kind, Body: m.Body})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling produce request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		// network errors and timeouts are worth retrying
		return nil, NewProviderError(0, err.Error(), true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, NewProviderError(resp.StatusCode, strings.TrimSpace(string(raw)), transient)
	}

	var generated produceResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return nil, fmt.Errorf("decoding produce response: %w", err)
	}

	return &model.DocumentContent{
		Body:        generated.Body,
		SectionType: req.Type,
		MaterialIDs: req.MaterialIDs,
		WordCount:   generated.WordCount,
	}, nil
}
