package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/cardsmith/internal/config"
	"github.com/phrazzld/cardsmith/internal/domain"
	"github.com/phrazzld/cardsmith/internal/inference"
	"github.com/phrazzld/cardsmith/internal/platform/logger"
	"github.com/phrazzld/cardsmith/internal/redact"
	"github.com/phrazzld/cardsmith/internal/sanitize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Saver persists a generated batch for a user and reports how many pairs
// were written before any failure.
type Saver interface {
	Save(ctx context.Context, userID string, batch domain.FlashcardBatch) (int, error)
}

// Request is the input to Run.
type Request struct {
	UserID string
	Notes  string
	Count  int
}

// Result is the outcome of Run.
type Result struct {
	Batch domain.FlashcardBatch
	// Saved is the number of pairs persisted. It can be non-zero when Run
	// fails during persistence.
	Saved int
}

// Orchestrator generates flashcard batches. It is safe for concurrent use.
type Orchestrator struct {
	qa             inference.QuestionAnswerer
	questions      *QuestionTemplate
	maxConcurrency int
	logger         *slog.Logger
	observer       Observer
	tracer         trace.Tracer
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers an observer for state transitions.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// NewOrchestrator creates an Orchestrator that asks qa one question per card.
//
// Parameters:
//   - qa: The question-answering provider
//   - cfg: Question template and concurrency settings
//   - logger: Structured logger used when the request context carries none
//
// Returns:
//   - A ready Orchestrator or an error wrapping ErrInvalidConfig
func NewOrchestrator(
	qa inference.QuestionAnswerer,
	cfg config.GenerationConfig,
	logger *slog.Logger,
	opts ...Option,
) (*Orchestrator, error) {
	if qa == nil {
		return nil, fmt.Errorf("%w: question answerer cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	questions, err := NewQuestionTemplate(cfg.QuestionTemplate)
	if err != nil {
		return nil, err
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	o := &Orchestrator{
		qa:             qa,
		questions:      questions,
		maxConcurrency: maxConcurrency,
		logger:         logger.With("component", "generation_orchestrator"),
		tracer:         otel.Tracer("github.com/phrazzld/cardsmith/internal/generation"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Generate returns count question/answer pairs for notes, in question order.
//
// Empty or whitespace-only notes and a count below one are rejected with a
// validation error before any question is asked. The first failed call
// aborts the batch with an inference error naming the question.
func (o *Orchestrator) Generate(ctx context.Context, notes string, count int) (domain.FlashcardBatch, error) {
	ctx, span := o.tracer.Start(ctx, "generation.Generate",
		trace.WithAttributes(attribute.Int("generation.count", count)))
	defer span.End()

	r := o.newRun(ctx)
	batch, err := o.generate(ctx, r, notes, count)
	if err != nil {
		return nil, r.fail(ctx, span, err)
	}
	if err := r.enter(ctx, StateDone, 0); err != nil {
		return nil, r.fail(ctx, span, err)
	}
	return batch, nil
}

// Run generates a batch and persists it for req.UserID with saver. Writes
// that succeed before a persistence failure are not rolled back and are
// reported in Result.Saved.
func (o *Orchestrator) Run(ctx context.Context, req Request, saver Saver) (Result, error) {
	ctx, span := o.tracer.Start(ctx, "generation.Run",
		trace.WithAttributes(attribute.Int("generation.count", req.Count)))
	defer span.End()

	r := o.newRun(ctx)
	if saver == nil {
		return Result{}, r.fail(ctx, span, fmt.Errorf("%w: saver cannot be nil", ErrInvalidConfig))
	}

	batch, err := o.generate(ctx, r, req.Notes, req.Count)
	if err != nil {
		return Result{}, r.fail(ctx, span, err)
	}

	if err := r.enter(ctx, StatePersisting, 0); err != nil {
		return Result{}, r.fail(ctx, span, err)
	}
	saved, err := saver.Save(ctx, req.UserID, batch)
	if err != nil {
		perr := domain.PersistenceError(
			fmt.Sprintf("saved %d of %d flashcards", saved, batch.Len()), err)
		return Result{Saved: saved}, r.fail(ctx, span, perr)
	}

	if err := r.enter(ctx, StateDone, 0); err != nil {
		return Result{Saved: saved}, r.fail(ctx, span, err)
	}
	return Result{Batch: batch, Saved: saved}, nil
}

// generate runs Validating through Assembled.
func (o *Orchestrator) generate(ctx context.Context, r *run, notes string, count int) (domain.FlashcardBatch, error) {
	if err := r.enter(ctx, StateValidating, 0); err != nil {
		return nil, err
	}
	if strings.TrimSpace(notes) == "" {
		return nil, domain.ValidationError(domain.ErrEmptyNotes.Error(), domain.ErrEmptyNotes)
	}
	if count < 1 {
		return nil, domain.ValidationError(
			fmt.Sprintf("invalid question count %d", count), domain.ErrInvalidQuestionCount)
	}

	passage := sanitize.String(notes)
	if err := r.enter(ctx, StateSanitized, 0); err != nil {
		return nil, err
	}

	questions, err := o.questions.RenderAll(count)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "could not build questions", err)
	}

	var answers []string
	if o.maxConcurrency > 1 && count > 1 {
		answers, err = o.askConcurrently(ctx, r, questions, passage)
	} else {
		answers, err = o.askSequentially(ctx, r, questions, passage)
	}
	if err != nil {
		return nil, err
	}

	batch := make(domain.FlashcardBatch, count)
	for i := range batch {
		batch[i] = domain.QuestionAnswerPair{Question: questions[i], Answer: answers[i]}
	}
	if err := r.enter(ctx, StateAssembled, 0); err != nil {
		return nil, err
	}
	return batch, nil
}

func (o *Orchestrator) askSequentially(
	ctx context.Context,
	r *run,
	questions []string,
	passage string,
) ([]string, error) {
	answers := make([]string, len(questions))
	for i, question := range questions {
		answer, err := o.ask(ctx, r, i+1, len(questions), question, passage)
		if err != nil {
			return nil, err
		}
		answers[i] = answer
	}
	return answers, nil
}

// askConcurrently issues up to maxConcurrency calls at once. The first error
// cancels the group context, which stops new calls and abandons in-flight ones.
func (o *Orchestrator) askConcurrently(
	ctx context.Context,
	r *run,
	questions []string,
	passage string,
) ([]string, error) {
	answers := make([]string, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrency)

	for i, question := range questions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			answer, err := o.ask(gctx, r, i+1, len(questions), question, passage)
			if err != nil {
				return err
			}
			answers[i] = answer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

// ask enters Calling(index) and issues one call.
func (o *Orchestrator) ask(
	ctx context.Context,
	r *run,
	index, total int,
	question, passage string,
) (string, error) {
	if err := r.enter(ctx, StateCalling, index); err != nil {
		return "", err
	}

	ctx, span := o.tracer.Start(ctx, "generation.ask",
		trace.WithAttributes(attribute.Int("generation.index", index)))
	defer span.End()

	answer, err := o.qa.Ask(ctx, question, passage)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "question failed")
		return "", domain.InferenceError(fmt.Sprintf("question %d of %d failed", index, total), err)
	}
	return answer, nil
}

// run tracks the state of one Generate or Run call.
type run struct {
	o      *Orchestrator
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

func (o *Orchestrator) newRun(ctx context.Context) *run {
	return &run{
		o:      o,
		logger: logger.FromContextOrDefault(ctx, o.logger),
		state:  StateIdle,
	}
}

// enter moves the run to next after checking the context. A cancelled
// context is returned as an error and the state is left unchanged.
func (r *run) enter(ctx context.Context, next State, index int) error {
	if err := ctx.Err(); err != nil {
		return domain.NewError(domain.KindInternal,
			fmt.Sprintf("generation cancelled before %s", next), err)
	}
	r.transition(ctx, Transition{To: next, Index: index})
	return nil
}

// fail moves the run to Failed and returns err.
func (r *run) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(domain.KindOf(err)))
	r.transition(ctx, Transition{To: StateFailed, Err: err})
	return err
}

func (r *run) transition(ctx context.Context, t Transition) {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return
	}
	t.From = r.state
	r.state = t.To
	r.mu.Unlock()

	if t.Err != nil {
		r.logger.WarnContext(ctx, "generation failed",
			"from", t.From.String(),
			"kind", string(domain.KindOf(t.Err)),
			"error", redact.Error(t.Err))
	} else {
		r.logger.DebugContext(ctx, "generation state changed",
			"from", t.From.String(),
			"to", t.To.String(),
			"index", t.Index)
	}

	if r.o.observer != nil {
		r.o.observer.OnTransition(ctx, t)
	}
}
