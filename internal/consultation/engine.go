// Package consultation runs the chat-driven nutrition consultation: it
// tracks phases, decides when enough has been said, and assembles the diet.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/shapemate-backend/internal/nutrition/calc"
	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/nutrition/lookup"
	"github.com/yungbote/shapemate-backend/internal/nutrition/menu"
	"github.com/yungbote/shapemate-backend/internal/nutrition/selector"
	"github.com/yungbote/shapemate-backend/internal/observability"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
	"github.com/yungbote/shapemate-backend/internal/platform/openai"
)

type FoodSelector interface {
	SelectFoodGroups(ctx context.Context, prefs selector.Preferences, targets calc.Calculation, conversation []selector.ContextTurn) ([]string, error)
}

type NutrientSource interface {
	GetMultipleFoods(ctx context.Context, names []string) map[string]*lookup.NutrientRecord
}

// Renderer turns a diet into a file and returns its location.
type Renderer interface {
	Render(ctx context.Context, doc document.Diet) (string, error)
}

// Discarder is implemented by renderers that can remove an artifact when
// a later finalize step fails.
type Discarder interface {
	Discard(ctx context.Context, path string) error
}

// DietSaver persists a finalized diet as the user's active diet.
type DietSaver interface {
	SaveDiet(ctx context.Context, userID string, doc document.Diet, pdfPath string) (string, error)
}

type Deps struct {
	LLM        openai.Client
	Selector   FoodSelector
	Nutrients  NutrientSource
	Calculator *calc.Calculator
	Assembler  *menu.Assembler
	Heuristic  Heuristic
	Renderer   Renderer
	Saver      DietSaver
	// HistoryLimit caps how many turns are sent to the model. Zero sends
	// the whole history.
	HistoryLimit int
	Now          func() time.Time
	NewID        func() string
}

type Engine struct {
	log          *logger.Logger
	llm          openai.Client
	selector     FoodSelector
	nutrients    NutrientSource
	calculator   *calc.Calculator
	assembler    *menu.Assembler
	heuristic    Heuristic
	renderer     Renderer
	saver        DietSaver
	historyLimit int
	now          func() time.Time
	newID        func() string
}

func NewEngine(log *logger.Logger, d Deps) (*Engine, error) {
	if d.LLM == nil || d.Selector == nil || d.Nutrients == nil {
		return nil, fmt.Errorf("consultation engine: llm, selector and nutrient source are required")
	}
	if log == nil {
		log = logger.Nop()
	}
	e := &Engine{
		log:          log.With("component", "ConsultationEngine"),
		llm:          d.LLM,
		selector:     d.Selector,
		nutrients:    d.Nutrients,
		calculator:   d.Calculator,
		assembler:    d.Assembler,
		heuristic:    d.Heuristic,
		renderer:     d.Renderer,
		saver:        d.Saver,
		historyLimit: d.HistoryLimit,
		now:          d.Now,
		newID:        d.NewID,
	}
	if e.calculator == nil {
		e.calculator = calc.New(nil)
	}
	if e.assembler == nil {
		e.assembler = menu.NewAssembler(nil)
	}
	if e.heuristic == nil {
		e.heuristic = DefaultHeuristic()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	return e, nil
}

// StartConsultation opens a consultation in PhaseGreeting with the
// greeting as its first turn.
func (e *Engine) StartConsultation(ctx context.Context, userID string, data UserData) (State, error) {
	now := e.now().UTC()
	st := State{
		ConsultationID: e.newID(),
		UserID:         userID,
		UserData:       data.clone(),
		CurrentPhase:   PhaseGreeting,
		CreatedAt:      now,
	}
	st.appendTurn(RoleAssistant, greeting(data), now)
	observability.Current().IncConsultationTurn(string(PhaseGreeting), "started")
	e.log.Info("Consultation started", "consultation_id", st.ConsultationID, "user_id", userID)
	return st, nil
}

// Reset discards the conversation and returns to PhaseGreeting, keeping
// the consultation id and the profile.
func (e *Engine) Reset(ctx context.Context, st State) (State, error) {
	out, err := e.StartConsultation(ctx, st.UserID, st.UserData)
	if err != nil {
		return State{}, err
	}
	out.ConsultationID = st.ConsultationID
	if !st.CreatedAt.IsZero() {
		out.CreatedAt = st.CreatedAt
	}
	if st.CurrentPhase != PhaseGreeting {
		observability.Current().IncPhaseTransition(string(st.CurrentPhase), string(PhaseGreeting))
	}
	return out, nil
}

// ContinueStructuredConsultation applies one user reply and returns the
// resulting state. st is not modified, so calling twice with the same
// input yields two independent results and never a doubled history. On
// error the caller keeps st.
func (e *Engine) ContinueStructuredConsultation(ctx context.Context, st State, reply string) (State, error) {
	ctx, span := observability.StartSpan(ctx, "consultation.continue",
		attribute.String("consultation.phase", string(st.CurrentPhase)),
	)
	defer span.End()

	next, err := e.continueTurn(ctx, st, reply)
	status := "ok"
	if err != nil {
		status = string(KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "consultation turn failed")
		e.log.Warn("Consultation turn failed", "consultation_id", st.ConsultationID, "phase", st.CurrentPhase, "error", err)
	}
	observability.Current().IncConsultationTurn(string(st.CurrentPhase), status)
	if err != nil {
		return State{}, err
	}
	if next.CurrentPhase != st.CurrentPhase {
		observability.Current().IncPhaseTransition(string(st.CurrentPhase), string(next.CurrentPhase))
		span.SetAttributes(attribute.String("consultation.next_phase", string(next.CurrentPhase)))
		e.log.Info("Consultation phase advanced", "consultation_id", st.ConsultationID, "from", st.CurrentPhase, "to", next.CurrentPhase)
	}
	return next, nil
}

func (e *Engine) continueTurn(ctx context.Context, st State, reply string) (State, error) {
	const op = "continue"
	reply = strings.TrimSpace(reply)
	if !st.CurrentPhase.Valid() {
		return State{}, newError(op, KindState, fmt.Errorf("invalid phase %q", st.CurrentPhase))
	}
	if reply == "" {
		return State{}, newError(op, KindValidation, ErrEmptyReply)
	}
	if utf8.RuneCountInString(reply) > maxReplyRunes {
		return State{}, newError(op, KindValidation, ErrReplyTooLong)
	}

	next := st.Clone()
	now := e.now().UTC()
	next.appendTurn(RoleUser, reply, now)
	fillFromMessage(&next.UserData, reply)

	if e.heuristic.IsGenerateCommand(reply) {
		return e.generate(ctx, next, now)
	}

	answer, err := e.llm.Chat(ctx, e.messages(next))
	if err != nil {
		return State{}, newError(op, KindDependency, err)
	}
	next.appendTurn(RoleAssistant, answer.Text, now)

	sig := e.heuristic.Evaluate(next.ConversationHistory)
	to := NextPhase(next.CurrentPhase, sig, next.UserTurns(), e.heuristic.MinUserTurns())
	if to == PhaseDietPreviewGeneration && next.CurrentPhase.Before(to) {
		diet, foods, err := e.buildDiet(ctx, next, now)
		if err != nil {
			return State{}, err
		}
		next.DietPreview = &diet
		next.SelectedFoods = foods
		next.ReadyForSummary = true
		next.ShowDietActionButtons = true
		next.replaceLastAssistant(document.RenderPreviewText(diet), now)
	}
	next.CurrentPhase = advance(next.CurrentPhase, to)
	return next, nil
}

const maxReplyRunes = 4000

// generate handles the explicit "generate the diet" command from any
// phase. An existing preview is promoted; otherwise the full pipeline runs.
func (e *Engine) generate(ctx context.Context, next State, now time.Time) (State, error) {
	var diet document.Diet
	switch {
	case next.GeneratedDiet != nil:
		diet = *next.GeneratedDiet
	case next.DietPreview != nil:
		diet = *next.DietPreview
	default:
		built, foods, err := e.buildDiet(ctx, next, now)
		if err != nil {
			return State{}, err
		}
		diet = built
		next.SelectedFoods = foods
	}
	if next.DietPreview == nil {
		preview := diet
		next.DietPreview = &preview
	}
	next.GeneratedDiet = &diet
	next.ReadyForSummary = true
	next.ShowDietActionButtons = true
	next.CurrentPhase = advance(next.CurrentPhase, PhaseDietGenerated)
	next.appendTurn(RoleAssistant, generatedMessage, now)
	return next, nil
}

// buildDiet runs calculator, selector, lookup, menu and document builder.
func (e *Engine) buildDiet(ctx context.Context, st State, now time.Time) (document.Diet, []string, error) {
	const op = "build_diet"
	ctx, span := observability.StartSpan(ctx, "consultation.build_diet")
	defer span.End()

	c, err := e.calculator.Calculate(st.UserData.Profile())
	if err != nil {
		var ve *calc.ValidationError
		if errors.As(err, &ve) {
			return document.Diet{}, nil, newError(op, KindValidation, err)
		}
		return document.Diet{}, nil, newError(op, KindDependency, err)
	}
	if c.ActivityDefaulted {
		e.log.Info("Activity level not recognized, using moderate", "consultation_id", st.ConsultationID, "reported", st.UserData.ActivityLevel)
	}

	foods, err := e.selector.SelectFoodGroups(ctx, st.UserData.Preferences(), c, contextTurns(st.ConversationHistory))
	if err != nil {
		if errors.Is(err, selector.ErrUnparseable) {
			return document.Diet{}, nil, newError(op, KindParse, err)
		}
		return document.Diet{}, nil, newError(op, KindDependency, err)
	}

	records := e.nutrients.GetMultipleFoods(ctx, foods)
	span.SetAttributes(
		attribute.Int("foods.requested", len(foods)),
		attribute.Int("foods.found", len(records)),
	)
	if len(records) == 0 {
		e.log.Warn("No selected food resolved in the nutrient database", "consultation_id", st.ConsultationID, "requested", len(foods))
	}

	weekly := e.assembler.Build(records, c)
	diet := document.Build(document.Input{
		Patient:        st.UserData.Patient(),
		Calculation:    &c,
		Menu:           weekly,
		Records:        records,
		RequestedFoods: foods,
		GeneratedAt:    now,
	})
	return diet, foods, nil
}

type FinalizeResult struct {
	DietID  string
	PDFPath string
	Diet    document.Diet
	State   State
}

// FinalizeDiet renders and persists the consultation's diet. Both steps
// must succeed; a failed save removes the rendered file when the renderer
// supports it.
func (e *Engine) FinalizeDiet(ctx context.Context, userID string, st State) (FinalizeResult, error) {
	const op = "finalize"
	ctx, span := observability.StartSpan(ctx, "consultation.finalize")
	defer span.End()
	m := observability.Current()

	if st.FinalizedDietID != "" {
		m.IncDietFinalized("already_finalized")
		return FinalizeResult{}, newError(op, KindState, ErrConsultationDone)
	}
	src := st.GeneratedDiet
	if src == nil {
		src = st.DietPreview
	}
	if src == nil {
		m.IncDietFinalized("no_diet")
		return FinalizeResult{}, newError(op, KindState, ErrNoDiet)
	}
	if e.renderer == nil || e.saver == nil {
		m.IncDietFinalized("unconfigured")
		return FinalizeResult{}, newError(op, KindDependency, fmt.Errorf("renderer and diet saver are required"))
	}

	now := e.now().UTC()
	final := *src
	final.GeneratedAt = now.Truncate(time.Second)

	start := time.Now()
	path, err := e.renderer.Render(ctx, final)
	if err != nil {
		m.ObservePDFRender("error", time.Since(start))
		m.IncDietFinalized("render_error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		return FinalizeResult{}, newError(op, KindDependency, fmt.Errorf("render pdf: %w", err))
	}
	m.ObservePDFRender("ok", time.Since(start))

	id, err := e.saver.SaveDiet(ctx, userID, final, path)
	if err != nil {
		m.IncDietFinalized("save_error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		if d, ok := e.renderer.(Discarder); ok {
			if derr := d.Discard(ctx, path); derr != nil {
				e.log.Warn("Failed to discard rendered diet", "path", path, "error", derr)
			}
		}
		return FinalizeResult{}, newError(op, KindDependency, fmt.Errorf("save diet: %w", err))
	}

	next := st.Clone()
	next.GeneratedDiet = &final
	next.CurrentPhase = advance(next.CurrentPhase, PhaseDietGenerated)
	next.ShowDietActionButtons = false
	next.FinalizedDietID = id
	next.appendTurn(RoleAssistant, finalizedMessage, now)

	m.IncDietFinalized("ok")
	e.log.Info("Diet finalized", "consultation_id", st.ConsultationID, "user_id", userID, "diet_id", id)
	return FinalizeResult{DietID: id, PDFPath: path, Diet: final, State: next}, nil
}

func (e *Engine) messages(st State) []openai.Message {
	hist := st.ConversationHistory
	if e.historyLimit > 0 && len(hist) > e.historyLimit {
		hist = hist[len(hist)-e.historyLimit:]
	}
	out := make([]openai.Message, 0, len(hist)+1)
	out = append(out, openai.Message{Role: openai.RoleSystem, Content: systemPrompt(st)})
	for _, t := range hist {
		role := openai.RoleUser
		if t.Role == RoleAssistant {
			role = openai.RoleAssistant
		}
		out = append(out, openai.Message{Role: role, Content: t.Message})
	}
	return out
}

func contextTurns(history []Turn) []selector.ContextTurn {
	out := make([]selector.ContextTurn, 0, len(history))
	for _, t := range history {
		out = append(out, selector.ContextTurn{Role: t.Role, Message: t.Message})
	}
	return out
}
