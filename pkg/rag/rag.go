package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/inquest-labs/inquest/backend/internal/util"
	"github.com/inquest-labs/inquest/backend/pkg/ai"
	"github.com/inquest-labs/inquest/backend/pkg/audit"
	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/cypher"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
	"github.com/inquest-labs/inquest/backend/pkg/policy"
)

// Pipeline answers natural-language questions about a case graph. Each
// request moves through a fixed sequence of stages; the policy guard gates
// retrieval and generation, and the citation gate is the last step before a
// response leaves the pipeline.
//
// Pipelines hold no per-request state and are safe for concurrent use.
type Pipeline struct {
	generator *cypher.Generator
	retriever *Retriever
	guard     *policy.Guard
	model     ai.ModelClient
	sink      audit.Sink

	limits         common.RetrievalLimits
	evidenceBudget int
	tokens         *ai.TokenCounter
	answerOpts     []ai.GenerateOption
}

// Transient adapter failures get one more attempt before the answer degrades.
const answerAttempts = 2

// PipelineParams configures a new Pipeline.
type PipelineParams struct {
	Generator *cypher.Generator
	Retriever *Retriever
	Guard     *policy.Guard
	Model     ai.ModelClient
	Sink      audit.Sink

	Limits common.RetrievalLimits
	// EvidenceTokenBudget caps the evidence tokens sent to the model.
	// Zero disables the cap.
	EvidenceTokenBudget int
	// AnswerOptions are applied to every answer-generation call.
	AnswerOptions []ai.GenerateOption
}

// NewPipeline creates a Pipeline from the given collaborators.
func NewPipeline(params PipelineParams) *Pipeline {
	limits := params.Limits
	if limits.MaxNodes == 0 && limits.MaxDepth == 0 && limits.MaxEvidenceSnippets == 0 {
		limits = common.DefaultRetrievalLimits()
	}

	return &Pipeline{
		generator:      params.Generator,
		retriever:      params.Retriever,
		guard:          params.Guard,
		model:          params.Model,
		sink:           params.Sink,
		limits:         limits,
		evidenceBudget: params.EvidenceTokenBudget,
		tokens:         ai.NewTokenCounter(),
		answerOpts:     params.AnswerOptions,
	}
}

// Answer runs the full pipeline for one question. The caller-supplied
// context carries the request deadline; retrieval and generation are
// canceled with it.
//
// Error contract: ErrPolicyViolation, ErrPolicyCheck, and ErrQueryGeneration
// are terminal and returned to the caller; retrieval/model failures degrade to
// a response with the generic system-error text and a nil error.
func (p *Pipeline) Answer(
	ctx context.Context,
	question string,
	schema common.SchemaContext,
	user policy.User,
) (*Response, error) {
	requestID := util.NewRequestID()
	now := time.Now().UTC()

	allowed, err := p.guard.CanAccessCase(ctx, user, schema.TenantID, schema.CaseID)
	if err != nil {
		logger.Error("Case access check failed", "request_id", requestID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPolicyCheck, err)
	}
	if !allowed {
		logger.Warn("Case access denied", "request_id", requestID, "case_id", schema.CaseID, "user_id", user.ID)
		resp := &Response{
			Answer: GraphRagAnswer{
				AnswerText: AccessDeniedText,
				Citations:  []common.Citation{},
				Unknowns:   []string{},
			},
			RawContext: common.GraphContext{},
			RequestID:  requestID,
			Timestamp:  now,
		}
		p.writeAudit(ctx, requestID, question, schema, user, resp, nil, nil)
		return resp, ErrPolicyViolation
	}

	gen, err := p.generator.Generate(ctx, question, schema)
	if err != nil {
		logger.Warn("Query generation failed", "request_id", requestID, "err", err)
		return nil, fmt.Errorf("%w: %s", ErrQueryGeneration, question)
	}
	logger.Debug("Query generated",
		"request_id", requestID,
		"mode", gen.Mode,
		"template_id", gen.TemplateID,
		"confidence", gen.Confidence,
	)

	// Best effort: without an embedding the evidence repository falls back
	// to stable creation order.
	embedding, err := p.model.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		logger.Debug("Question embedding unavailable", "request_id", requestID, "err", err)
		embedding = nil
	}

	rawContext, err := p.retriever.Retrieve(ctx, gen, schema, p.limits, embedding)
	if err != nil {
		logger.Error("Context retrieval failed", "request_id", requestID, "err", err)
		return p.systemErrorResponse(ctx, requestID, now, question, schema, user, nil), nil
	}

	filtered, decision, err := p.guard.ApplyToContext(ctx, rawContext, user, schema.CaseID)
	if err != nil {
		logger.Error("Policy filtering failed", "request_id", requestID, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrPolicyCheck, err)
	}
	logger.Debug("Policy applied",
		"request_id", requestID,
		"allowed_evidence", decision.AllowedEvidenceCount,
		"filtered_evidence", decision.FilteredEvidenceCount,
	)

	if len(filtered.EvidenceSnippets) == 0 {
		// Nothing the requester may see, so nothing ever reaches the model.
		resp := &Response{
			Answer: GraphRagAnswer{
				AnswerText:         NoEvidenceText,
				Citations:          []common.Citation{},
				Unknowns:           []string{},
				UsedContextSummary: filtered.Summary(),
			},
			RawContext: filtered,
			RequestID:  requestID,
			Timestamp:  now,
		}
		p.writeAudit(ctx, requestID, question, schema, user, resp, &decision, nil)
		return resp, nil
	}

	payload := ai.ContextPayload{
		Question: question,
		Nodes:    filtered.Nodes,
		Edges:    filtered.Edges,
		Evidence: p.tokens.ClampEvidence(filtered.EvidenceSnippets, p.evidenceBudget),
	}

	draft, err := util.RetryWithContext(ctx, answerAttempts, func(ctx context.Context) (*ai.DraftAnswer, error) {
		return p.model.GenerateAnswer(ctx, payload, p.answerOpts...)
	})
	if err != nil {
		logger.Error("Answer generation failed", "request_id", requestID, "err", err)
		return p.systemErrorResponse(ctx, requestID, now, question, schema, user, &decision), nil
	}

	answer, diagnostics := validateCitations(*draft, payload.Evidence)
	answer.UsedContextSummary = common.ContextSummary{
		NumNodes:            len(payload.Nodes),
		NumEdges:            len(payload.Edges),
		NumEvidenceSnippets: len(payload.Evidence),
	}
	if len(diagnostics.DanglingCitations) > 0 {
		logger.Warn("Removed dangling citations",
			"request_id", requestID,
			"count", len(diagnostics.DanglingCitations),
		)
	}

	resp := &Response{
		Answer:              answer,
		RawContext:          filtered,
		RequestID:           requestID,
		Timestamp:           now,
		CitationDiagnostics: &diagnostics,
	}
	p.writeAudit(ctx, requestID, question, schema, user, resp, &decision, &diagnostics)

	return resp, nil
}

func (p *Pipeline) systemErrorResponse(
	ctx context.Context,
	requestID string,
	ts time.Time,
	question string,
	schema common.SchemaContext,
	user policy.User,
	decision *policy.Decision,
) *Response {
	resp := &Response{
		Answer: GraphRagAnswer{
			AnswerText: SystemErrorText,
			Citations:  []common.Citation{},
			Unknowns:   []string{},
		},
		RawContext: common.GraphContext{},
		RequestID:  requestID,
		Timestamp:  ts,
	}
	p.writeAudit(ctx, requestID, question, schema, user, resp, decision, nil)
	return resp
}

// writeAudit dispatches the per-request audit record. The record is built
// synchronously from the finalized response and appended from its own
// goroutine; the response never waits on the sink, and append failures are
// logged and swallowed.
func (p *Pipeline) writeAudit(
	ctx context.Context,
	requestID string,
	question string,
	schema common.SchemaContext,
	user policy.User,
	resp *Response,
	decision *policy.Decision,
	diagnostics *CitationDiagnostics,
) {
	if p.sink == nil {
		return
	}

	record := &audit.Record{
		RequestID:      requestID,
		UserID:         user.ID,
		CaseID:         schema.CaseID,
		Question:       question,
		ContextSummary: resp.RawContext.Summary(),
		AnswerSummary: audit.AnswerSummary{
			HasAnswer:    resp.Answer.AnswerText != "",
			NumCitations: len(resp.Answer.Citations),
			NumUnknowns:  len(resp.Answer.Unknowns),
		},
		PolicyDecision: decision,
		CreatedAt:      time.Now().UTC(),
	}
	if diagnostics != nil {
		for _, c := range diagnostics.DanglingCitations {
			record.Dangling = append(record.Dangling, c.EvidenceID)
		}
	}

	// The audit write must not inherit a canceled request context.
	detached := context.WithoutCancel(ctx)
	go func() {
		auditCtx, cancel := context.WithTimeout(detached, 5*time.Second)
		defer cancel()

		if err := p.sink.Append(auditCtx, record); err != nil {
			logger.Error("Audit write failed", "request_id", requestID, "err", err)
		}
	}()
}
