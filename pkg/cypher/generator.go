package cypher

import (
	"context"
	"errors"
	"fmt"

	"github.com/inquest-labs/inquest/backend/pkg/ai"
	"github.com/inquest-labs/inquest/backend/pkg/common"
	"github.com/inquest-labs/inquest/backend/pkg/logger"
)

// Mode tags how a query was produced. Callers only branch on it for
// confidence and audit reporting, never for execution behavior.
type Mode string

const (
	ModeTemplate Mode = "template"
	ModeModel    Mode = "model"
)

// Template generation is fully deterministic and pre-validated; model
// generation passes the safety gate but has unverified provenance.
const (
	TemplateConfidence = 1.0
	ModelConfidence    = 0.8
)

// ErrNotTranslatable is returned when neither a template match nor a
// validated model query could be produced for a question. The safety gate is
// never relaxed to rescue a failed match.
var ErrNotTranslatable = errors.New("question could not be translated into a case query")

// GenerationResult is a safe, tenant-scoped graph query ready for execution.
type GenerationResult struct {
	Query      string         `json:"query"`
	Params     map[string]any `json:"params"`
	Mode       Mode           `json:"mode"`
	TemplateID string         `json:"template_id,omitempty"`
	Confidence float64        `json:"confidence"`
}

// Generator turns question text into a case-scoped graph query. It tries the
// deterministic template catalog first and falls back to model-assisted
// generation gated by the read-only validator.
type Generator struct {
	templates []Template
	model     ai.ModelClient
	maxDepth  int
}

// NewGenerator creates a Generator over the given template catalog. A nil
// model disables the fallback, leaving template-only generation.
func NewGenerator(templates []Template, model ai.ModelClient, maxDepth int) *Generator {
	if maxDepth <= 0 {
		maxDepth = common.DefaultRetrievalLimits().MaxDepth
	}
	return &Generator{
		templates: templates,
		model:     model,
		maxDepth:  maxDepth,
	}
}

// Generate produces a query for the question, or ErrNotTranslatable if no
// template matches and the model fallback fails validation.
func (g *Generator) Generate(
	ctx context.Context,
	question string,
	schema common.SchemaContext,
) (*GenerationResult, error) {
	for _, tpl := range g.templates {
		params, ok := tpl.Match(question)
		if !ok {
			continue
		}

		if params == nil {
			params = map[string]any{}
		}
		params["caseId"] = schema.CaseID

		return &GenerationResult{
			Query:      tpl.Query,
			Params:     params,
			Mode:       ModeTemplate,
			TemplateID: tpl.ID,
			Confidence: TemplateConfidence,
		}, nil
	}

	if g.model == nil {
		return nil, ErrNotTranslatable
	}

	prompt := fmt.Sprintf(ai.QueryGenerationPrompt, schema.SchemaSummary, g.maxDepth, question)
	queryText, err := g.model.GenerateQuery(ctx, prompt)
	if err != nil {
		logger.Error("Model query generation failed", "err", err)
		return nil, fmt.Errorf("%w: model generation failed", ErrNotTranslatable)
	}

	if err := ValidateReadOnly(queryText); err != nil {
		logger.Warn("Rejected model-generated query", "reason", err)
		return nil, fmt.Errorf("%w: %s", ErrNotTranslatable, err)
	}

	return &GenerationResult{
		Query:      queryText,
		Params:     map[string]any{"caseId": schema.CaseID},
		Mode:       ModeModel,
		Confidence: ModelConfidence,
	}, nil
}
