package provider

import (
	"context"
	"time"
)

// Client defines the interface for vision providers.
type Client interface {
	// DescribeImage sends an image and prompt to the provider's vision
	// endpoint and returns the text reply.
	DescribeImage(ctx context.Context, imageB64, prompt string) (TextReply, error)
}

// ImageGenerator is implemented by providers that can synthesize images.
// The source image is carried along so the edit-endpoint fallback can use it.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, sourceImageB64 string) (ImageReply, error)
}

// TextReply contains a provider's text response.
type TextReply struct {
	Content string
}

// ImageReply contains a provider's generated image as base64.
type ImageReply struct {
	ImageB64 string
}

// Config holds configuration for a provider client. It is injected at
// construction time; nothing is read from ambient global state.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	ImageModel  string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}
