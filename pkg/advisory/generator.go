package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"plantguard-be/internal/constant"
	"plantguard-be/internal/pkg/logger"
	"plantguard-be/pkg/llm"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "advisory"

var ErrNoProvider = errors.New("no LLM provider configured")

// Generator turns a diagnosis into a bilingual advisory and answers
// follow-up questions. It never fails: unusable model output degrades to
// the canned fallback.
type Generator struct {
	provider llm.LLMProvider
	validate *validator.Validate
	tracer   trace.Tracer
	log      logger.ILogger
}

// NewGenerator builds a Generator. provider may be nil, in which case every
// call returns the fallback.
func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		validate: validator.New(),
		tracer:   otel.Tracer("plantguard-be/advisory"),
		log:      log,
	}
}

// Prompt formats the initial advisory request. confidence is a fraction.
func Prompt(disease string, confidence, severity float64) string {
	return fmt.Sprintf(constant.AdvisoryPromptTemplate, disease, confidence*100, severity)
}

func (g *Generator) Generate(ctx context.Context, disease string, confidence, severity float64) Advisory {
	ctx, span := g.tracer.Start(ctx, "advisory.Generate", trace.WithAttributes(
		attribute.String("disease", disease),
		attribute.Float64("confidence", confidence),
		attribute.Float64("severity", severity),
	))
	defer span.End()

	var out Advisory
	err := g.call(ctx, []llm.Message{{Role: llm.RoleUser, Content: Prompt(disease, confidence, severity)}},
		constant.AdvisorySystemInstruction, AdvisorySchema(), &out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback advisory")
		g.log.Warn(logModule, "Advisory generation failed, using fallback", map[string]interface{}{
			"disease": disease,
			"error":   err.Error(),
		})
		return Fallback(disease)
	}
	return out
}

// FollowUp replays transcript as chat history and asks question. The
// transcript slice is not modified.
func (g *Generator) FollowUp(ctx context.Context, transcript []llm.Message, question string) Answer {
	ctx, span := g.tracer.Start(ctx, "advisory.FollowUp", trace.WithAttributes(
		attribute.Int("history.length", len(transcript)),
	))
	defer span.End()

	history := make([]llm.Message, 0, len(transcript)+1)
	history = append(history, transcript...)
	history = append(history, llm.Message{Role: llm.RoleUser, Content: question})

	var out Answer
	if err := g.call(ctx, history, constant.FollowUpSystemInstruction, AnswerSchema(), &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback answer")
		g.log.Warn(logModule, "Follow-up failed, using fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return FallbackAnswer()
	}
	return out
}

func (g *Generator) call(ctx context.Context, history []llm.Message, system string, schema map[string]interface{}, out interface{}) error {
	if g.provider == nil {
		return ErrNoProvider
	}
	raw, err := g.provider.Chat(ctx, history,
		llm.WithSystemInstruction(system),
		llm.WithJSONResponse(schema),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", g.provider.Name(), err)
	}
	return g.decode(raw, out)
}

// decode enforces the output contract: optional fences stripped, no unknown
// fields, every leaf present and non-empty.
func (g *Generator) decode(raw string, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(llm.StripCodeFence(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	if dec.More() {
		return errors.New("decode model output: trailing data")
	}
	if err := g.validate.Struct(out); err != nil {
		return fmt.Errorf("validate model output: %w", err)
	}
	return nil
}
