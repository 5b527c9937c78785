package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"ai-receipt/pkg/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

var ErrMissingAPIKey = errors.New("gemini api key is not configured")

const apiVersion = "v1beta"

// Request is one multimodal generateContent call: a text prompt plus a
// single inline image.
type Request struct {
	Prompt         string
	MIMEType       string
	Image          []byte
	ResponseSchema *genai.Schema
}

// generator is the part of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	models generator
	model  string
	logger *zap.Logger
}

// NewClient builds a client for the Gemini API. Without an API key the
// client is returned unconfigured and every call fails with ErrMissingAPIKey.
func NewClient(ctx context.Context, cfg *config.GeminiConfig, logger *zap.Logger) (*Client, error) {
	c := &Client{
		model:  cfg.Model,
		logger: logger,
	}
	if !cfg.Configured() {
		return c, nil
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.APIBase,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	c.models = genaiClient.Models
	return c, nil
}

func (c *Client) Configured() bool {
	return c.models != nil
}

// GenerateContent performs a single call and returns the response envelope
// as JSON. The envelope is not interpreted here.
func (c *Client) GenerateContent(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrMissingAPIKey
	}

	resp, err := c.models.GenerateContent(ctx, c.model, buildContents(req), buildConfig(req))
	if err != nil {
		c.logger.Warn("Gemini API call failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return "", nil
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to encode gemini response: %w", err)
	}

	c.logger.Debug("Gemini response received",
		zap.String("model", c.model),
		zap.Int("candidates", len(resp.Candidates)),
	)
	return string(body), nil
}

func buildContents(req Request) []*genai.Content {
	return []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: req.Prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: req.MIMEType,
						Data:     req.Image,
					},
				},
			},
		},
	}
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.ResponseSchema,
	}
}
