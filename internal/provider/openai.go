package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// openAIClient implements Client and ImageGenerator for the OpenAI API.
type openAIClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	imageModel  string
	baseURL     string
	temperature float64
	maxTokens   int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}

	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = "dall-e-3"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &openAIClient{
		apiKey:      cfg.APIKey,
		model:       model,
		imageModel:  imageModel,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// DescribeImage sends an image with a prompt to the chat completions endpoint.
func (c *openAIClient) DescribeImage(ctx context.Context, imageB64, prompt string) (TextReply, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "image_url",
						"image_url": map[string]any{
							"url": "data:image/jpeg;base64," + imageB64,
						},
					},
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return TextReply{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", strings.NewReader(string(jsonBody)))
	if err != nil {
		return TextReply{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TextReply{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TextReply{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return TextReply{}, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, providerMessage(body))
	}

	var response openAIChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return TextReply{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Choices) == 0 {
		return TextReply{}, fmt.Errorf("no completion choices returned")
	}

	return TextReply{Content: response.Choices[0].Message.Content}, nil
}

// GenerateImage synthesizes an image for the prompt. The generations endpoint
// is the primary path; on any failure there the edits endpoint is attempted
// once with the source image. No retry beyond that single fallback.
func (c *openAIClient) GenerateImage(ctx context.Context, prompt, sourceImageB64 string) (ImageReply, error) {
	reply, genErr := c.generate(ctx, prompt)
	if genErr == nil {
		return reply, nil
	}

	reply, editErr := c.edit(ctx, prompt, sourceImageB64)
	if editErr != nil {
		return ImageReply{}, fmt.Errorf("image generation failed (%v); edit fallback failed: %w", genErr, editErr)
	}
	return reply, nil
}

func (c *openAIClient) generate(ctx context.Context, prompt string) (ImageReply, error) {
	requestBody := map[string]any{
		"model":           c.imageModel,
		"prompt":          prompt,
		"n":               1,
		"size":            "1024x1024",
		"response_format": "b64_json",
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return ImageReply{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/generations", strings.NewReader(string(jsonBody)))
	if err != nil {
		return ImageReply{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.doImageRequest(ctx, req)
}

// edit posts the source image and prompt to the images/edits endpoint as a
// multipart form.
func (c *openAIClient) edit(ctx context.Context, prompt, sourceImageB64 string) (ImageReply, error) {
	imageBytes, err := base64.StdEncoding.DecodeString(sourceImageB64)
	if err != nil {
		return ImageReply{}, fmt.Errorf("invalid source image: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "source.png")
	if err != nil {
		return ImageReply{}, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(imageBytes); err != nil {
		return ImageReply{}, fmt.Errorf("failed to build form: %w", err)
	}

	_ = writer.WriteField("prompt", prompt)
	_ = writer.WriteField("n", "1")
	_ = writer.WriteField("size", "1024x1024")
	_ = writer.WriteField("response_format", "b64_json")

	if err := writer.Close(); err != nil {
		return ImageReply{}, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/edits", &buf)
	if err != nil {
		return ImageReply{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.doImageRequest(ctx, req)
}

func (c *openAIClient) doImageRequest(ctx context.Context, req *http.Request) (ImageReply, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ImageReply{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImageReply{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return ImageReply{}, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, providerMessage(body))
	}

	var response openAIImageResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ImageReply{}, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Data) == 0 {
		return ImageReply{}, fmt.Errorf("no image data in response")
	}

	if b64 := response.Data[0].B64JSON; b64 != "" {
		return ImageReply{ImageB64: b64}, nil
	}

	// Some models return a hosted URL instead of inline bytes; fetch and
	// re-encode so callers always see base64.
	if url := response.Data[0].URL; url != "" {
		b64, err := fetchImageBase64(ctx, c.httpClient, url)
		if err != nil {
			return ImageReply{}, err
		}
		return ImageReply{ImageB64: b64}, nil
	}

	return ImageReply{}, fmt.Errorf("image response contained neither inline data nor a URL")
}

// openAIChatResponse represents the chat completions response structure.
type openAIChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// openAIImageResponse represents the images endpoint response structure.
type openAIImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}
