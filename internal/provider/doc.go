// Package provider implements vision and image-generation clients for the
// external AI APIs. It supports Anthropic and OpenAI, selected through a
// single factory so the pipeline never depends on a concrete provider.
package provider
