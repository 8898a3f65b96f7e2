// Package gemini provides the client for the external generative-image
// service that turns a photo of a home into a decorated rendition and
// suggests matching decor products.
//
// The package exposes a small interface so the transport layer depends on an
// injected client handle rather than package-level state; the HTTP
// implementation speaks the generativelanguage REST API directly. The image
// call sits outside the quota ledger's consistency domain: callers reserve
// quota first and compensate when this client fails.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production endpoint of the image service.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultImageModel is the model used for photo decoration.
const DefaultImageModel = "gemini-2.5-flash-image"

// DefaultTextModel is the model used for product suggestion analysis.
const DefaultTextModel = "gemini-2.5-flash"

// ErrNoImage is returned when the service responds without image data,
// typically because the request was refused for a given photo or prompt.
var ErrNoImage = errors.New("model returned no image")

// DecorateRequest carries one decoration job.
type DecorateRequest struct {
	ImageBase64 string // raw base64 payload, no data-URL prefix
	MimeType    string // e.g. "image/jpeg"
	Scene       string // "interior" or "exterior"
	Style       string // preset name or "custom"
	Prompt      string // free-form description, required for "custom"
	Lighting    string // "day" or "night"
	Intensity   string // minimal…maximal
}

// Decoration is the generated image.
type Decoration struct {
	ImageBase64 string
	MimeType    string
}

// ProductSuggestion is one decor item the model spotted in the generated
// image, with a search term suitable for a shopping query.
type ProductSuggestion struct {
	ProductName string `json:"productName"`
	SearchTerm  string `json:"searchTerm"`
}

// Client is the image-service contract consumed by the HTTP layer.
type Client interface {
	// Decorate renders the decorated version of the photo.
	Decorate(ctx context.Context, req DecorateRequest) (*Decoration, error)
	// SuggestProducts analyzes a generated image and proposes shoppable items.
	SuggestProducts(ctx context.Context, imageBase64, mimeType string) ([]ProductSuggestion, error)
}

// HTTPClient implements Client against the generativelanguage REST API.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	imageModel string
	textModel  string
	hc         *http.Client
}

// Option customizes an HTTPClient.
type Option func(*HTTPClient)

// WithBaseURL overrides the service endpoint (tests point it at a local server).
func WithBaseURL(u string) Option { return func(c *HTTPClient) { c.baseURL = u } }

// WithImageModel overrides the decoration model.
func WithImageModel(m string) Option { return func(c *HTTPClient) { c.imageModel = m } }

// WithTextModel overrides the analysis model.
func WithTextModel(m string) Option { return func(c *HTTPClient) { c.textModel = m } }

// WithHTTPClient overrides the underlying *http.Client (timeout included).
func WithHTTPClient(hc *http.Client) Option { return func(c *HTTPClient) { c.hc = hc } }

// NewHTTPClient constructs an HTTPClient. The default timeout matches the
// mobile client's two-minute generation budget.
func NewHTTPClient(apiKey string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		imageModel: DefaultImageModel,
		textModel:  DefaultTextModel,
		hc:         &http.Client{Timeout: 2 * time.Minute},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// wire types for the generateContent endpoint

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	ResponseMimeType   string   `json:"responseMimeType,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Decorate sends the photo plus the composed decoration prompt and returns
// the first image part of the response.
func (c *HTTPClient) Decorate(ctx context.Context, req DecorateRequest) (*Decoration, error) {
	body := generateContentRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: req.MimeType, Data: req.ImageBase64}},
			{Text: buildDecorationPrompt(req)},
		}}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE"}},
	}
	resp, err := c.generate(ctx, c.imageModel, body)
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				return &Decoration{
					ImageBase64: p.InlineData.Data,
					MimeType:    p.InlineData.MimeType,
				}, nil
			}
		}
	}
	return nil, ErrNoImage
}

// SuggestProducts asks the text model to list decor items visible in the
// generated image as a JSON array of {productName, searchTerm}.
func (c *HTTPClient) SuggestProducts(ctx context.Context, imageBase64, mimeType string) ([]ProductSuggestion, error) {
	body := generateContentRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: mimeType, Data: imageBase64}},
			{Text: productAnalysisPrompt},
		}}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	resp, err := c.generate(ctx, c.textModel, body)
	if err != nil {
		return nil, err
	}
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.Text == "" {
				continue
			}
			var suggestions []ProductSuggestion
			if err := json.Unmarshal([]byte(p.Text), &suggestions); err != nil {
				return nil, fmt.Errorf("decode product suggestions: %w", err)
			}
			return suggestions, nil
		}
	}
	return nil, nil
}

func (c *HTTPClient) generate(ctx context.Context, model string, body generateContentRequest) (*generateContentResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 64<<20))
	if err != nil {
		return nil, err
	}
	var out generateContentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s response (status %d): %w", model, res.StatusCode, err)
	}
	if res.StatusCode != http.StatusOK {
		if out.Error != nil {
			return nil, fmt.Errorf("image service: %s (status %d)", out.Error.Message, res.StatusCode)
		}
		return nil, fmt.Errorf("image service: status %d", res.StatusCode)
	}
	return &out, nil
}
