// Package optimize implements the iterative optimization loop: evaluate the
// current agent, stop on convergence, otherwise ask the research and
// engineer collaborators for a revision and materialize a new agent+prompt
// version for the next iteration.
//
// The loop is strictly sequential across iterations; iteration n+1 depends
// on the materialized output of iteration n. The only internal concurrency
// is the two-way fan-out inside the hybrid evaluator.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promptopt/promptopt/internal/evaluation"
	"github.com/promptopt/promptopt/internal/patterns"
	"github.com/promptopt/promptopt/internal/storage"
	"github.com/promptopt/promptopt/internal/types"
)

// Optimizer drives optimization runs. One Optimize call owns its mutable
// state (current agent, history, pattern analyzer) for the duration of the
// run; the Optimizer itself holds only immutable collaborator references.
type Optimizer struct {
	store       storage.Storage
	runner      types.AgentRunner
	researcher  types.Researcher
	engineer    types.Engineer
	strategy    evaluation.Strategy // nil selects automatically per sample
	sampleLimit int
	usage       UsageSource // nil disables token accounting
}

// UsageSource reports cumulative token consumption of the collaborators'
// shared transport.
type UsageSource interface {
	TokensUsed() (input, output int64)
}

// Config wires the optimizer's collaborators.
type Config struct {
	Store      storage.Storage
	Runner     types.AgentRunner
	Researcher types.Researcher
	Engineer   types.Engineer

	// Strategy forces a specific evaluation strategy. Nil auto-selects
	// based on what ground truth the sample offers.
	Strategy evaluation.Strategy

	// SampleLimit caps how many labeled records each evaluation uses
	// (0 = all available)
	SampleLimit int

	// Usage, when set, is read at run termination and persisted on the run
	// summary. Totals are cumulative over the source's lifetime; the CLI
	// builds one client per run.
	Usage UsageSource
}

// New creates an optimizer.
func New(cfg *Config) (*Optimizer, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("agent runner is required")
	}
	if cfg.Researcher == nil {
		return nil, fmt.Errorf("researcher is required")
	}
	if cfg.Engineer == nil {
		return nil, fmt.Errorf("engineer is required")
	}
	return &Optimizer{
		store:       cfg.Store,
		runner:      cfg.Runner,
		researcher:  cfg.Researcher,
		engineer:    cfg.Engineer,
		strategy:    cfg.Strategy,
		sampleLimit: cfg.SampleLimit,
		usage:       cfg.Usage,
	}, nil
}

// runState is the mutable state of one Optimize call.
type runState struct {
	runID   string
	baseKey string
	history []types.OptimizationStep

	firstScore float64
	lastScore  float64
	lastAgent  string
	lastPrompt string

	targetReached bool
}

// Optimize runs the loop for the named base agent until a convergence
// criterion fires.
//
// Error policy: NotFound, NoTestData, and LengthMismatch are always fatal.
// A collaborator failure on the first iteration is fatal too; from the
// second iteration on it terminates the loop early, returning the best
// state reached so far with stop reason "error".
func (o *Optimizer) Optimize(ctx context.Context, agentKey string, conv types.ConvergenceConfig) (*types.OptimizationResult, error) {
	if conv.MaxIterations <= 0 {
		conv = types.DefaultConvergenceConfig()
	}

	agent, err := o.store.GetAgent(ctx, agentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent %s: %w", agentKey, err)
	}
	if agent == nil {
		return nil, fmt.Errorf("agent %s: %w", agentKey, types.ErrNotFound)
	}
	prompt, err := o.store.GetPrompt(ctx, agent.PromptVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt %s: %w", agent.PromptVersion, err)
	}
	if prompt == nil {
		return nil, fmt.Errorf("prompt version %s: %w", agent.PromptVersion, types.ErrNotFound)
	}

	state := &runState{
		runID:      uuid.NewString(),
		baseKey:    agentKey,
		lastAgent:  agent.Key,
		lastPrompt: prompt.Version,
	}
	if err := o.store.CreateRun(ctx, &types.OptimizationRun{
		ID:       state.runID,
		AgentKey: agentKey,
	}); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	// The analyzer owns the cross-iteration pattern history for this run
	analyzer := patterns.NewAnalyzer()

	var (
		noImprovement int
		lastApplied   []string
		lastExpected  float64
	)

	for iteration := 1; iteration <= conv.MaxIterations; iteration++ {
		records, err := o.store.ListEvalRecords(ctx, o.sampleLimit)
		if err != nil {
			return o.handleIterationError(ctx, state, iteration, fmt.Errorf("failed to load eval records: %w", err))
		}
		if len(records) == 0 {
			// Always fatal: an empty sample is a setup problem, not a
			// transient one
			return nil, fmt.Errorf("agent %s: %w", agentKey, types.ErrNoTestData)
		}

		sample, err := o.buildSample(ctx, agent, prompt, records)
		if err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}

		strategy := o.strategy
		if strategy == nil {
			strategy, err = evaluation.Select(evaluation.DetectCapabilities(records), evaluation.DefaultStrategies())
			if err != nil {
				return nil, err
			}
		}

		result, err := strategy.Evaluate(sample)
		if err != nil {
			if errors.Is(err, types.ErrLengthMismatch) {
				// Contract violation, fatal regardless of iteration
				return nil, err
			}
			return o.handleIterationError(ctx, state, iteration, err)
		}

		feedback := strategy.GenerateFeedback(result)

		observed := analyzer.AnalyzePatterns([]*types.EvaluationResult{result}, strategy)
		analyzer.TrackPatternEvolution(observed, iteration)
		persistent := analyzer.GetPersistentPatterns(3)
		suggestions := analyzer.SuggestImprovements(append(observed, persistent...))

		o.recordAssessment(ctx, agent, strategy.Name(), result, feedback)

		improvement := 0.0
		if iteration > 1 {
			improvement = result.Score - state.lastScore
		} else {
			state.firstScore = result.Score
		}

		state.lastScore = result.Score
		state.lastAgent = agent.Key
		state.lastPrompt = prompt.Version
		o.recordStep(ctx, state, types.OptimizationStep{
			Iteration:           iteration,
			AgentKey:            agent.Key,
			PromptVersion:       prompt.Version,
			Score:               result.Score,
			Improvement:         improvement,
			FeedbackSummary:     feedback.Summary,
			AppliedTechniques:   lastApplied,
			ExpectedImprovement: lastExpected,
			Timestamp:           time.Now().UTC(),
		})

		fmt.Printf("Iteration %d: agent=%s score=%.3f improvement=%+.3f\n",
			iteration, agent.Key, result.Score, improvement)

		if result.Score >= conv.TargetScore {
			state.targetReached = true
			return o.finish(ctx, state, types.StopTargetReached), nil
		}

		if iteration > 1 {
			if improvement < conv.MinImprovementThreshold {
				noImprovement++
			} else {
				noImprovement = 0
			}
			if noImprovement >= conv.MaxConsecutiveNoImprovement {
				return o.finish(ctx, state, types.StopNoImprovement), nil
			}
		}

		if iteration == conv.MaxIterations {
			break
		}

		findings, err := o.researcher.Research(ctx, types.ResearchRequest{
			CurrentPrompt:   prompt.Template,
			EvaluationScore: result.Score,
			Feedback:        composeFeedback(feedback, suggestions),
		})
		if err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}

		revision, err := o.engineer.Engineer(ctx, types.EngineerRequest{
			CurrentPrompt:    prompt.Template,
			EvaluationScore:  result.Score,
			Feedback:         composeFeedback(feedback, suggestions),
			ResearchFindings: findings,
		})
		if err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}

		// Materialize the next version pair: new prompt, then a new agent
		// referencing it. Append-only; the previous versions stay intact.
		// Identifiers are probed against storage so repeated runs over the
		// same base agent never collide with earlier runs' rows.
		version, err := o.nextFreeVersion(ctx, prompt.Version, iteration)
		if err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}
		newPrompt := &types.Prompt{
			Version:           version,
			Template:          revision.ImprovedPrompt,
			ParentVersion:     prompt.Version,
			AppliedTechniques: revision.AppliedTechniques,
		}
		if err := o.store.CreatePrompt(ctx, newPrompt); err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}

		key, err := o.nextFreeAgentKey(ctx, state.baseKey, iteration)
		if err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}
		newAgent := &types.Agent{
			Key:           key,
			Model:         agent.Model,       // original model carried unchanged
			Temperature:   agent.Temperature, // original parameters carried unchanged
			MaxTokens:     agent.MaxTokens,
			PromptVersion: newPrompt.Version,
			BasedOn:       agent.Key,
			Iteration:     iteration,
		}
		if err := o.store.CreateAgent(ctx, newAgent); err != nil {
			return o.handleIterationError(ctx, state, iteration, err)
		}

		agent = newAgent
		prompt = newPrompt
		lastApplied = revision.AppliedTechniques
		lastExpected = revision.ExpectedImprovement
	}

	return o.finish(ctx, state, types.StopMaxIterations), nil
}

// handleIterationError applies the error policy: fatal on the first
// iteration, recovered into a terminal "error" stop afterwards.
func (o *Optimizer) handleIterationError(ctx context.Context, state *runState, iteration int, err error) (*types.OptimizationResult, error) {
	if iteration == 1 {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "optimization stopped at iteration %d: %v\n", iteration, err)
	return o.finish(ctx, state, types.StopError), nil
}

// finish assembles the terminal result from the best completed state and
// finalizes the persisted run summary.
func (o *Optimizer) finish(ctx context.Context, state *runState, reason types.StopReason) *types.OptimizationResult {
	result := &types.OptimizationResult{
		RunID:              state.runID,
		FinalAgentKey:      state.lastAgent,
		FinalPromptVersion: state.lastPrompt,
		FinalScore:         state.lastScore,
		TotalImprovement:   state.lastScore - state.firstScore,
		Iterations:         len(state.history),
		History:            state.history,
		TargetReached:      state.targetReached,
		StoppedReason:      reason,
	}
	if o.usage != nil {
		result.InputTokens, result.OutputTokens = o.usage.TokensUsed()
	}

	if err := o.store.UpdateRun(ctx, &types.OptimizationRun{
		ID:               state.runID,
		AgentKey:         state.baseKey,
		FinalAgentKey:    result.FinalAgentKey,
		FinalScore:       result.FinalScore,
		TotalImprovement: result.TotalImprovement,
		Iterations:       result.Iterations,
		TargetReached:    result.TargetReached,
		StoppedReason:    reason,
		InputTokens:      result.InputTokens,
		OutputTokens:     result.OutputTokens,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to finalize run %s: %v\n", state.runID, err)
	}

	return result
}

// recordStep appends a step to the in-memory history and persists it
// best-effort.
func (o *Optimizer) recordStep(ctx context.Context, state *runState, step types.OptimizationStep) {
	state.history = append(state.history, step)
	if err := o.store.AddRunStep(ctx, state.runID, &step); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist step %d: %v\n", step.Iteration, err)
	}
}

// recordAssessment persists the evaluation snapshot best-effort; a storage
// hiccup here must not kill the run.
func (o *Optimizer) recordAssessment(ctx context.Context, agent *types.Agent, strategy string, result *types.EvaluationResult, feedback *types.DetailedFeedback) {
	if err := o.store.CreateAssessment(ctx, &types.Assessment{
		AgentKey:        agent.Key,
		PromptVersion:   agent.PromptVersion,
		Strategy:        strategy,
		Score:           result.Score,
		Metrics:         result.Metrics,
		FeedbackSummary: feedback.Summary,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to persist assessment for %s: %v\n", agent.Key, err)
	}
}

// buildSample executes the agent over the labeled records and assembles the
// evaluation sample. Execution is sequential; the records are typically few
// and ordering keeps token spend predictable.
func (o *Optimizer) buildSample(ctx context.Context, agent *types.Agent, prompt *types.Prompt, records []*types.EvalRecord) (*evaluation.Sample, error) {
	sample := &evaluation.Sample{}
	hasFacts := false

	for i, record := range records {
		output, err := o.runner.Run(ctx, agent, prompt, record.Input)
		if err != nil {
			return nil, err
		}

		sample.Inputs = append(sample.Inputs, record.Input)
		sample.Responses = append(sample.Responses, output)
		sample.Expected = append(sample.Expected, record.ExpectedOutput)
		sample.Facts = append(sample.Facts, record.Facts)
		if record.Facts != nil && len(record.Facts.Facts) > 0 {
			hasFacts = true
		}

		// Only scored records contribute to the numeric series; ScoredIndex
		// keeps each prediction attributable to its record.
		if record.CorrectedScore != nil {
			sample.Predictions = append(sample.Predictions, parseScore(output))
			sample.Truth = append(sample.Truth, *record.CorrectedScore)
			sample.ScoredIndex = append(sample.ScoredIndex, i)
		}
	}

	if !hasFacts {
		sample.Facts = nil
	}
	return sample, nil
}

var floatRegex = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// parseScore extracts the agent's numeric prediction from its raw output,
// clamped to [0,1]. Unparseable output counts as 0.
func parseScore(output string) float64 {
	match := floatRegex.FindString(output)
	if match == "" {
		return 0
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// composeFeedback flattens feedback and analyzer suggestions into the text
// block handed to the research collaborator.
func composeFeedback(fb *types.DetailedFeedback, suggestions []string) string {
	var b strings.Builder
	b.WriteString(fb.Summary)

	writeSection := func(header string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString("\n\n")
		b.WriteString(header)
		for _, line := range lines {
			b.WriteString("\n- ")
			b.WriteString(line)
		}
	}

	writeSection("Strengths:", fb.Strengths)
	writeSection("Weaknesses:", fb.Weaknesses)
	writeSection("Action items:", fb.ActionItems)
	writeSection("Observed failure patterns:", fb.Patterns)
	writeSection("Suggested directions:", suggestions)
	return b.String()
}
