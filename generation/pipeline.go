package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/specboard/specboard/document"
	"github.com/specboard/specboard/projectapi"
)

// DefaultMaxInstructionLen caps the user instruction, matching the input
// limit enforced by the edit surface.
const DefaultMaxInstructionLen = 200

// Completer sends chat messages to the generation service. Implemented by
// *Client; tests substitute a counting fake to prove the prerequisite gate
// short-circuits before any call.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (*Response, error)
}

// PrerequisiteReader fetches the documents that gate generation.
type PrerequisiteReader interface {
	GetProposal(ctx context.Context, projectID string) (*projectapi.Proposal, error)
	GetFeatureSpec(ctx context.Context, projectID string) (*projectapi.FeatureSpec, error)
}

// Pipeline converts a free-text instruction into a normalized document:
// prerequisite gate, generation call, fence-strip parse, shape repair.
// Failures never touch the caller's current document.
type Pipeline struct {
	completer         Completer
	prereqs           PrerequisiteReader
	maxInstructionLen int
	logger            *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMaxInstructionLen overrides the instruction length cap.
func WithMaxInstructionLen(n int) PipelineOption {
	return func(p *Pipeline) {
		p.maxInstructionLen = n
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a generation pipeline.
func NewPipeline(completer Completer, prereqs PrerequisiteReader, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		completer:         completer,
		prereqs:           prereqs,
		maxInstructionLen: DefaultMaxInstructionLen,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate runs the full pipeline for one instruction and returns the
// normalized document ready to replace the current snapshot.
//
// Precondition failures return a projectapi.ValidationError before any
// generation call. Service and parse failures return ServiceError and
// ParseError respectively.
func (p *Pipeline) Generate(ctx context.Context, projectID, instruction string) (document.Document, error) {
	if len([]rune(instruction)) > p.maxInstructionLen {
		return document.Document{}, projectapi.NewValidationError(
			fmt.Sprintf("instruction exceeds %d characters", p.maxInstructionLen))
	}

	proposal, featureSpec, err := p.checkPrerequisites(ctx, projectID)
	if err != nil {
		return document.Document{}, err
	}

	requestID := uuid.New().String()
	p.logger.Info("Generating api spec",
		"project_id", projectID,
		"request_id", requestID,
		"instruction_len", len(instruction))

	messages, err := buildMessages(proposal, featureSpec, instruction)
	if err != nil {
		return document.Document{}, NewServiceError(fmt.Errorf("build prompt: %w", err))
	}

	resp, err := p.completer.Complete(ctx, messages)
	if err != nil {
		return document.Document{}, NewServiceError(err)
	}

	partial, err := resp.Result().Document()
	if err != nil {
		p.logger.Warn("Generation response failed to parse",
			"project_id", projectID,
			"request_id", requestID,
			"error", err)
		return document.Document{}, err
	}

	doc := document.Normalize(partial)
	p.logger.Info("Generated api spec",
		"project_id", projectID,
		"request_id", requestID,
		"rows", doc.Rows())
	return doc, nil
}

// checkPrerequisites fetches and validates the proposal and feature spec.
// Both must be complete before the generation service is contacted.
func (p *Pipeline) checkPrerequisites(ctx context.Context, projectID string) (*projectapi.Proposal, *projectapi.FeatureSpec, error) {
	proposal, err := p.prereqs.GetProposal(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if err := proposal.Complete(); err != nil {
		return nil, nil, err
	}

	featureSpec, err := p.prereqs.GetFeatureSpec(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	if err := featureSpec.Ready(); err != nil {
		return nil, nil, err
	}

	return proposal, featureSpec, nil
}

const systemPrompt = `You are an API designer for a software project. Produce an API
specification as a single JSON object with these keys, each holding an array
of strings of equal length (one element per API): category, functionName,
uri, method, priority, description. method must be one of GET, POST, PUT,
PATCH, DELETE. priority must be one of High, Medium, Low. Respond with JSON
only.`

// buildMessages assembles the chat prompt from the prerequisite documents and
// the user instruction.
func buildMessages(proposal *projectapi.Proposal, featureSpec *projectapi.FeatureSpec, instruction string) ([]Message, error) {
	proposalJSON, err := json.Marshal(proposal)
	if err != nil {
		return nil, fmt.Errorf("marshal proposal: %w", err)
	}
	featureJSON, err := json.Marshal(featureSpec)
	if err != nil {
		return nil, fmt.Errorf("marshal feature spec: %w", err)
	}

	var b strings.Builder
	b.WriteString("Project proposal:\n")
	b.Write(proposalJSON)
	b.WriteString("\n\nFeature specification:\n")
	b.Write(featureJSON)
	if strings.TrimSpace(instruction) != "" {
		b.WriteString("\n\nAdditional instruction:\n")
		b.WriteString(instruction)
	}

	return []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: b.String()},
	}, nil
}
