// Package pipeline contains the workflow orchestrator: it assembles a prompt
// from toggled options, calls the external vision provider with the defined
// fallback behavior, normalizes the reply, and persists the outcome exactly
// once per successful request.
package pipeline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/specimenworks/fieldlens/internal/common"
	"github.com/specimenworks/fieldlens/internal/model"
	"github.com/specimenworks/fieldlens/internal/parse"
	"github.com/specimenworks/fieldlens/internal/prompt"
	"github.com/specimenworks/fieldlens/internal/provider"
	"github.com/specimenworks/fieldlens/internal/service"
)

// Policy makes the orchestrator's failure behavior explicit configuration
// instead of accidental fall-through.
type Policy struct {
	// CallTimeout bounds each outbound provider call chain.
	CallTimeout time.Duration
	// MaxAttempts bounds retries of a provider call. The default of 1 means
	// no retry beyond the provider's own defined fallback.
	MaxAttempts int
	// ReturnOnStoreFailure controls whether a computed result is still
	// returned to the caller when persistence fails. When false, a
	// persistence failure fails the whole request.
	ReturnOnStoreFailure bool
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		CallTimeout:          120 * time.Second,
		MaxAttempts:          1,
		ReturnOnStoreFailure: true,
	}
}

// Error tags a pipeline failure with the ID the request would have used for
// a success record.
type Error struct {
	Err  error
	ID   string
	Hint string
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Record converts the error into the uniform payload returned to callers.
func (e *Error) Record() model.ErrorRecord {
	return model.ErrorRecord{
		ID:      e.ID,
		Message: e.Err.Error(),
		Hint:    e.Hint,
	}
}

// Orchestrator runs the classification and restoration workflows. All
// collaborators are injected at construction time.
type Orchestrator struct {
	client    provider.Client
	builder   *prompt.Builder
	store     service.Storage
	artifacts service.ArtifactStore
	logger    *slog.Logger
	policy    Policy
}

// New creates an orchestrator for one provider and task profile.
func New(client provider.Client, builder *prompt.Builder, store service.Storage, artifacts service.ArtifactStore, policy Policy, logger *slog.Logger) *Orchestrator {
	if policy.CallTimeout <= 0 {
		policy.CallTimeout = DefaultPolicy().CallTimeout
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		client:    client,
		builder:   builder,
		store:     store,
		artifacts: artifacts,
		logger:    logger,
		policy:    policy,
	}
}

// Classify runs the single-call classification workflow: one vision request,
// a heuristic parse of the text block, and one durable write.
func (o *Orchestrator) Classify(ctx context.Context, imageB64 string, options map[string]bool) (*model.Result, error) {
	id := newResultID()

	imageBytes, err := decodeImage(imageB64)
	if err != nil {
		return nil, &Error{ID: id, Err: err, Hint: "upload a base64-encoded JPEG or PNG image"}
	}

	visionPrompt := o.builder.Build(options)

	reply, err := o.describe(ctx, imageB64, visionPrompt)
	if err != nil {
		o.logger.Error("classification call failed", "result_id", id, "error", err)
		return nil, &Error{ID: id, Err: fmt.Errorf("%w: %v", common.ErrProviderCall, err)}
	}

	fields := parse.Reply(reply.Content)

	result := &model.Result{
		ID:          id,
		Kind:        o.builder.Profile().Kind,
		Category:    fields.Category,
		Confidence:  fields.Confidence,
		Description: fields.Description,
		Details:     fields.Details,
		RawResponse: fields.Raw,
		Status:      model.StatusGenerated,
		CreatedAt:   time.Now().UTC(),
	}

	if err := o.persist(ctx, result, imageBytes, nil); err != nil {
		if !o.policy.ReturnOnStoreFailure {
			return nil, &Error{ID: id, Err: err}
		}
		o.logger.Error("result computed but not persisted", "result_id", id, "error", err)
	}

	o.logger.Info("image classified",
		"result_id", id,
		"category", result.Category,
		"confidence", result.Confidence)

	return result, nil
}

// Restore runs the two-stage restoration workflow: the vision description
// must succeed before image synthesis is attempted, and the synthesis prompt
// splices in the stage-one description.
func (o *Orchestrator) Restore(ctx context.Context, imageB64 string, options map[string]bool) (*model.Result, error) {
	id := newResultID()

	imageBytes, err := decodeImage(imageB64)
	if err != nil {
		return nil, &Error{ID: id, Err: err, Hint: "upload a base64-encoded JPEG or PNG image"}
	}

	generator, ok := o.client.(provider.ImageGenerator)
	if !ok {
		return nil, &Error{
			ID:   id,
			Err:  fmt.Errorf("%w: provider does not support image generation", common.ErrInvalidConfig),
			Hint: "configure an image-capable provider such as openai",
		}
	}

	describePrompt := o.builder.Build(options)

	reply, err := o.describe(ctx, imageB64, describePrompt)
	if err != nil {
		o.logger.Error("restoration describe stage failed", "result_id", id, "error", err)
		return nil, &Error{ID: id, Err: fmt.Errorf("%w: %v", common.ErrProviderCall, err)}
	}

	fields := parse.Reply(reply.Content)

	restorePrompt := o.builder.BuildRestoration(fields.Description, options)

	callCtx, cancel := context.WithTimeout(ctx, o.policy.CallTimeout)
	defer cancel()

	image, err := generator.GenerateImage(callCtx, restorePrompt, imageB64)
	if err != nil {
		o.logger.Error("restoration generate stage failed", "result_id", id, "error", err)
		return nil, &Error{ID: id, Err: fmt.Errorf("%w: %v", common.ErrProviderCall, err)}
	}

	restoredBytes, err := base64.StdEncoding.DecodeString(image.ImageB64)
	if err != nil {
		return nil, &Error{ID: id, Err: fmt.Errorf("%w: generated image is not valid base64", common.ErrParseFailed)}
	}

	result := &model.Result{
		ID:          id,
		Kind:        o.builder.Profile().Kind,
		Category:    fields.Category,
		Confidence:  fields.Confidence,
		Description: fields.Description,
		Details:     fields.Details,
		RawResponse: fields.Raw,
		Status:      model.StatusGenerated,
		CreatedAt:   time.Now().UTC(),
	}

	if err := o.persist(ctx, result, imageBytes, restoredBytes); err != nil {
		if !o.policy.ReturnOnStoreFailure {
			return nil, &Error{ID: id, Err: err}
		}
		o.logger.Error("result computed but not persisted", "result_id", id, "error", err)
	}

	o.logger.Info("image restored",
		"result_id", id,
		"style", result.Category)

	return result, nil
}

// describe performs the bounded vision call.
func (o *Orchestrator) describe(ctx context.Context, imageB64, visionPrompt string) (provider.TextReply, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.policy.CallTimeout)
	defer cancel()

	var reply provider.TextReply
	err := common.WithRetry(callCtx, func() error {
		var callErr error
		reply, callErr = o.client.DescribeImage(callCtx, imageB64, visionPrompt)
		if callErr != nil {
			return &common.RetryableError{Err: callErr, Retryable: common.IsRetryable(callErr)}
		}
		return nil
	}, service.RetryOptions{MaxAttempts: o.policy.MaxAttempts})

	return reply, err
}

// persist writes the result row and its companion artifacts. A failure in any
// part is reported as a single persistence failure; nothing is retried.
func (o *Orchestrator) persist(ctx context.Context, result *model.Result, originalImage, restoredImage []byte) error {
	originalPath, err := o.artifacts.Put(result.ID, "original.jpg", originalImage)
	if err != nil {
		return fmt.Errorf("failed to store original image: %w", err)
	}
	result.OriginalImagePath = originalPath

	if restoredImage != nil {
		restoredPath, err := o.artifacts.Put(result.ID, "restored.png", restoredImage)
		if err != nil {
			return fmt.Errorf("failed to store restored image: %w", err)
		}
		result.RestoredImagePath = restoredPath
	}

	resultJSON, err := json.Marshal(map[string]any{
		"id":         result.ID,
		"result":     result.Details,
		"created_at": result.CreatedAt.Format("2006-01-02 15:04:05"),
	})
	if err != nil {
		return fmt.Errorf("failed to encode result artifact: %w", err)
	}
	if _, err := o.artifacts.Put(result.ID, "result.json", resultJSON); err != nil {
		return fmt.Errorf("failed to store result artifact: %w", err)
	}

	if err := o.store.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func decodeImage(imageB64 string) ([]byte, error) {
	if strings.TrimSpace(imageB64) == "" {
		return nil, common.ErrEmptyImage
	}

	data, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return nil, fmt.Errorf("%w: not valid base64", common.ErrInvalidImage)
	}
	return data, nil
}

func newResultID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
