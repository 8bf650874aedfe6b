// Package analyzer is the top-level coordinator of one analysis run:
// classify -> resolve providers -> build prompts -> dispatch -> merge ->
// assign chain -> persist.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sifterlab/mediasift/internal/core/chain"
	"github.com/sifterlab/mediasift/internal/core/classify"
	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
	"github.com/sifterlab/mediasift/internal/core/llm"
	"github.com/sifterlab/mediasift/internal/core/prompt"
	"github.com/sifterlab/mediasift/internal/core/resolve"
	"github.com/sifterlab/mediasift/internal/platform/observability"
)

// maxParallelKinds bounds the per-kind dispatch fan-out. At most one call
// per distinct media kind runs at a time.
const maxParallelKinds = 4

// Repository is the persistence surface the orchestrator needs.
type Repository interface {
	SaveAnalysis(ctx context.Context, record *domain.UnifiedAnalysisRecord) (string, error)
	LatestByChain(ctx context.Context, chainID string) (*domain.UnifiedAnalysisRecord, error)
}

// ProviderCatalog supplies the registry snapshot, read once per run.
type ProviderCatalog interface {
	ListProviders(ctx context.Context) ([]domain.Provider, error)
}

// ClientFactory builds a call client for a resolved provider.
type ClientFactory interface {
	ClientFor(ctx context.Context, p domain.Provider) (llm.Client, error)
}

// UsageRecorder persists per-vendor token/cost accounting. Best effort: a
// recording failure never fails the run.
type UsageRecorder interface {
	IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error
}

// Analyzer orchestrates analysis runs.
type Analyzer struct {
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	builder    *prompt.Builder
	factory    ClientFactory
	providers  ProviderCatalog
	repo       Repository
	usage      UsageRecorder
	logger     *zerolog.Logger
	now        func() time.Time
}

// New creates an Analyzer. The usage recorder may be nil.
func New(
	classifier *classify.Classifier,
	resolver *resolve.Resolver,
	builder *prompt.Builder,
	factory ClientFactory,
	providers ProviderCatalog,
	repo Repository,
	usage UsageRecorder,
	logger *zerolog.Logger,
) *Analyzer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Analyzer{
		classifier: classifier,
		resolver:   resolver,
		builder:    builder,
		factory:    factory,
		providers:  providers,
		repo:       repo,
		usage:      usage,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one orchestration for a source. The collector guarantees
// items contains only content newer than the prior checkpoint; no date
// re-filtering happens here. A kind-level failure degrades the merge; only
// a persistence failure fails the run.
func (a *Analyzer) Run(ctx context.Context, source domain.Source, scenario *domain.Scenario, items []domain.ContentItem) (*domain.UnifiedAnalysisRecord, error) {
	started := a.now()

	batch := a.classifier.Classify(items)
	stats := classify.Stats(items, batch)
	kinds := batch.Kinds()

	registry, err := a.providers.ListProviders(ctx)
	if err != nil {
		observability.AnalysisRuns.WithLabelValues(statusFailed).Inc()

		return nil, fmt.Errorf("load provider registry: %w", err)
	}

	mapping, failures := a.resolver.Resolve(kinds, scenario, registry)
	prompts := a.buildPrompts(kinds, scenario, source, stats, batch)

	results := a.dispatch(ctx, batch, mapping, prompts)

	for kind, ferr := range failures {
		results[kind] = domain.AnalysisResult{Kind: kind, Error: ferr.Error()}
	}

	record := a.assemble(ctx, source, scenario, stats, results, prompts)

	id, err := a.repo.SaveAnalysis(ctx, record)
	if err != nil {
		observability.AnalysisRuns.WithLabelValues(statusFailed).Inc()

		return nil, fmt.Errorf("%w: %w", pipeerr.ErrPersistence, err)
	}

	record.ID = id

	observability.AnalysisRuns.WithLabelValues(statusOK).Inc()

	if record.Degraded {
		observability.DegradedRuns.Inc()
	}

	a.logger.Info().
		Str(logKeySource, source.ID).
		Str(logKeyChain, record.ChainID).
		Int(logKeyKinds, len(kinds)).
		Int("total_tokens", record.TotalTokens).
		Int64("cost_cents", record.EstimatedCostCents).
		Bool("degraded", record.Degraded).
		Dur("elapsed", a.now().Sub(started)).
		Msg("analysis run persisted")

	return record, nil
}

// buildPrompts renders the final prompt per present kind. The substitution
// context carries source fields, scenario configuration, and batch stats.
func (a *Analyzer) buildPrompts(
	kinds []domain.MediaKind,
	scenario *domain.Scenario,
	source domain.Source,
	stats domain.ContentStats,
	batch domain.ClassifiedBatch,
) map[domain.MediaKind]string {
	context := promptContext(source, scenario, stats)

	prompts := make(map[domain.MediaKind]string, len(kinds))
	for _, kind := range kinds {
		text := a.builder.Build(kind, scenario, context)

		if kind == domain.MediaKindText {
			text = appendTextSample(text, batch)
		}

		prompts[kind] = text
	}

	return prompts
}

// dispatch fires one LLM call per resolved kind. Calls run concurrently and
// independently; a failed or timed-out call degrades only its own kind.
func (a *Analyzer) dispatch(
	ctx context.Context,
	batch domain.ClassifiedBatch,
	mapping resolve.Mapping,
	prompts map[domain.MediaKind]string,
) map[domain.MediaKind]domain.AnalysisResult {
	type kindResult struct {
		kind   domain.MediaKind
		result domain.AnalysisResult
	}

	kinds := make([]domain.MediaKind, 0, len(mapping))
	for kind := range mapping {
		kinds = append(kinds, kind)
	}

	out := make([]kindResult, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelKinds)

	for i, kind := range kinds {
		g.Go(func() error {
			out[i] = kindResult{kind: kind, result: a.analyzeKind(gctx, kind, mapping[kind], prompts[kind], batch)}

			return nil
		})
	}

	// Goroutines record their own failures; Wait only synchronizes.
	_ = g.Wait()

	results := make(map[domain.MediaKind]domain.AnalysisResult, len(out))
	for _, kr := range out {
		results[kr.kind] = kr.result
	}

	return results
}

// analyzeKind performs the single call for one media kind.
func (a *Analyzer) analyzeKind(
	ctx context.Context,
	kind domain.MediaKind,
	provider domain.Provider,
	promptText string,
	batch domain.ClassifiedBatch,
) domain.AnalysisResult {
	started := a.now()

	result := domain.AnalysisResult{
		Kind:     kind,
		Provider: provider.ID,
		Vendor:   llm.EffectiveVendor(provider),
	}

	client, err := a.factory.ClientFor(ctx, provider)
	if err != nil {
		result.Error = err.Error()
		result.Elapsed = a.now().Sub(started)

		return result
	}

	resp, err := client.Analyze(ctx, llm.Request{
		Prompt:    promptText,
		MediaURLs: batch.MediaURLs(kind),
	})

	result.Elapsed = a.now().Sub(started)

	observability.DispatchDuration.WithLabelValues(string(kind)).Observe(result.Elapsed.Seconds())

	if err != nil {
		result.Error = err.Error()

		a.logger.Warn().
			Err(err).
			Str(logKeyKind, string(kind)).
			Str(logKeyProvider, provider.ID).
			Msg("kind dispatch failed")

		return result
	}

	result.Parsed = resp.Parsed
	result.Tokens = resp.Tokens
	result.Vendor = resp.Vendor

	a.recordUsage(resp, kind, provider)

	return result
}

// recordUsage pushes token metrics and the best-effort usage row.
func (a *Analyzer) recordUsage(resp llm.Response, kind domain.MediaKind, provider domain.Provider) {
	observability.LLMTokensPrompt.WithLabelValues(resp.Vendor, resp.Model).Add(float64(resp.Tokens.Request))
	observability.LLMTokensCompletion.WithLabelValues(resp.Vendor, resp.Model).Add(float64(resp.Tokens.Response))

	if a.usage == nil {
		return
	}

	costUSD := float64(resp.Tokens.Total()) / 1000.0 * provider.CostPer1K

	ctx, cancel := context.WithTimeout(context.Background(), usageWriteTimeout)
	defer cancel()

	if err := a.usage.IncrementLLMUsage(ctx, resp.Vendor, resp.Model, string(kind), resp.Tokens.Request, resp.Tokens.Response, costUSD); err != nil {
		a.logger.Warn().Err(err).Str(logKeyVendor, resp.Vendor).Msg("usage recording failed")
	}
}

// assemble builds the unified record: merge, chain linkage, totals.
func (a *Analyzer) assemble(
	ctx context.Context,
	source domain.Source,
	scenario *domain.Scenario,
	stats domain.ContentStats,
	results map[domain.MediaKind]domain.AnalysisResult,
	prompts map[domain.MediaKind]string,
) *domain.UnifiedAnalysisRecord {
	scenarioID := ""
	if scenario != nil {
		scenarioID = scenario.ID
	}

	chainID := chain.ID(source.ID, scenarioID)

	parentID := ""
	if parent, err := a.repo.LatestByChain(ctx, chainID); err != nil {
		a.logger.Warn().Err(err).Str(logKeyChain, chainID).Msg("chain parent lookup failed")
	} else if parent != nil {
		parentID = parent.ID
	}

	summary, degraded := mergeSummary(results)
	summary.Distribution = distribution(stats)

	totalTokens := 0
	for _, r := range results {
		totalTokens += r.Tokens.Total()
	}

	return &domain.UnifiedAnalysisRecord{
		SourceID:           source.ID,
		ScenarioID:         scenarioID,
		AnalysisDate:       a.now(),
		ChainID:            chainID,
		ParentID:           parentID,
		Results:            results,
		Summary:            summary,
		Stats:              stats,
		TotalTokens:        totalTokens,
		EstimatedCostCents: CostMinorUnits(totalTokens),
		Degraded:           degraded,
		Prompts:            prompts,
	}
}

// promptContext builds the variable substitution context for templates.
func promptContext(source domain.Source, scenario *domain.Scenario, stats domain.ContentStats) map[string]any {
	context := map[string]any{
		"source": map[string]any{
			"id":       source.ID,
			"platform": source.Platform,
			"ref":      source.ExternalRef,
		},
		"stats": map[string]any{
			"items":      stats.Items,
			"text_items": stats.TextItems,
		},
	}

	if scenario != nil {
		scenarioCtx := map[string]any{"id": scenario.ID}
		for key, value := range scenario.Config {
			scenarioCtx[key] = value
		}

		context["scenario"] = scenarioCtx
	}

	return context
}

// appendTextSample attaches the text bucket's content beneath the prompt.
func appendTextSample(promptText string, batch domain.ClassifiedBatch) string {
	if len(batch.Text) == 0 {
		return promptText
	}

	sample := promptText + "\n\nPosts:\n"

	for i, item := range batch.Text {
		sample += fmt.Sprintf("[%d] (likes: %d, comments: %d, views: %d) %s\n",
			i+1, item.Likes, item.Comments, item.Views, item.Text)
	}

	if batch.TextTruncated {
		sample += "\n(sample truncated)\n"
	}

	return sample
}

const (
	statusOK     = "ok"
	statusFailed = "failed"

	logKeySource   = "source_id"
	logKeyChain    = "chain_id"
	logKeyKind     = "media_kind"
	logKeyKinds    = "kinds"
	logKeyProvider = "provider"
	logKeyVendor   = "vendor"

	usageWriteTimeout = 5 * time.Second
)
