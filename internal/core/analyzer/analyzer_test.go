package analyzer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlab/mediasift/internal/core/classify"
	"github.com/sifterlab/mediasift/internal/core/domain"
	pipeerr "github.com/sifterlab/mediasift/internal/core/errors"
	"github.com/sifterlab/mediasift/internal/core/llm"
	"github.com/sifterlab/mediasift/internal/core/prompt"
	"github.com/sifterlab/mediasift/internal/core/resolve"
)

type mockRepo struct {
	mu      sync.Mutex
	saved   []*domain.UnifiedAnalysisRecord
	parent  *domain.UnifiedAnalysisRecord
	errSave error
}

func (m *mockRepo) SaveAnalysis(_ context.Context, record *domain.UnifiedAnalysisRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.errSave != nil {
		return "", m.errSave
	}

	m.saved = append(m.saved, record)

	return "analysis-1", nil
}

func (m *mockRepo) LatestByChain(_ context.Context, _ string) (*domain.UnifiedAnalysisRecord, error) {
	return m.parent, nil
}

type mockCatalog struct {
	providers []domain.Provider
}

func (m *mockCatalog) ListProviders(_ context.Context) ([]domain.Provider, error) {
	return m.providers, nil
}

type mockClient struct {
	response llm.Response
	err      error
	gotReq   llm.Request
}

func (m *mockClient) Analyze(_ context.Context, req llm.Request) (llm.Response, error) {
	m.gotReq = req

	return m.response, m.err
}

type mockFactory struct {
	clients map[string]*mockClient
}

func (m *mockFactory) ClientFor(_ context.Context, p domain.Provider) (llm.Client, error) {
	client, ok := m.clients[p.ID]
	if !ok {
		return nil, errors.New("no client configured")
	}

	return client, nil
}

type usageCall struct {
	provider string
	model    string
	task     string
	prompt   int
	complete int
	cost     float64
}

type mockUsage struct {
	mu    sync.Mutex
	calls []usageCall
}

func (m *mockUsage) IncrementLLMUsage(_ context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, usageCall{provider, model, task, promptTokens, completionTokens, cost})

	return nil
}

func newTestAnalyzer(repo *mockRepo, catalog *mockCatalog, factory *mockFactory, usage UsageRecorder) *Analyzer {
	return New(
		classify.New(0),
		resolve.New(nil),
		prompt.NewBuilder(),
		factory,
		catalog,
		repo,
		usage,
		nil,
	)
}

func textProvider(id string) domain.Provider {
	return domain.Provider{
		ID:           id,
		Type:         domain.ProviderTypeOpenAI,
		Capabilities: []domain.MediaKind{domain.MediaKindText},
		Active:       true,
		CostPer1K:    0.5,
		Model:        "gpt-test",
	}
}

func imageProvider(id string) domain.Provider {
	return domain.Provider{
		ID:           id,
		Type:         domain.ProviderTypeGoogle,
		Capabilities: []domain.MediaKind{domain.MediaKindImage},
		Active:       true,
		CostPer1K:    1.0,
		Model:        "gemini-test",
	}
}

func TestRunPersistsUnifiedRecord(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	usage := &mockUsage{}
	client := &mockClient{response: llm.Response{
		Parsed: map[string]any{
			"main_topics":     []any{"go", "testing"},
			"overall_mood":    "upbeat",
			"sentiment_score": 0.8,
			"highlights":      []any{"release day"},
		},
		Tokens: domain.TokenCount{Request: 300, Response: 150},
		Vendor: "openai",
		Model:  "gpt-test",
	}}
	factory := &mockFactory{clients: map[string]*mockClient{"txt": client}}

	a := newTestAnalyzer(repo, catalog, factory, usage)

	source := domain.Source{ID: "src-1", Platform: "telegram", ExternalRef: "@tech"}
	items := []domain.ContentItem{{ExternalID: "p1", Text: "big release today", Likes: 10}}

	record, err := a.Run(context.Background(), source, nil, items)
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)

	assert.Equal(t, "analysis-1", record.ID)
	assert.Equal(t, "source_src-1", record.ChainID)
	assert.Empty(t, record.ParentID)
	assert.False(t, record.Degraded)
	assert.Equal(t, 450, record.TotalTokens)
	assert.Equal(t, int64(45), record.EstimatedCostCents)
	assert.Equal(t, []string{"go", "testing"}, record.Summary.Topics)
	assert.Equal(t, "upbeat", record.Summary.Sentiment)

	// The dispatched prompt carries the text sample with engagement counters.
	assert.Contains(t, client.gotReq.Prompt, "big release today")
	assert.Contains(t, client.gotReq.Prompt, "likes: 10")

	require.Len(t, usage.calls, 1)
	assert.Equal(t, "openai", usage.calls[0].provider)
	assert.Equal(t, string(domain.MediaKindText), usage.calls[0].task)
	assert.InDelta(t, 450.0/1000.0*0.5, usage.calls[0].cost, 1e-9)
}

func TestRunChainsOntoPreviousAnalysis(t *testing.T) {
	repo := &mockRepo{parent: &domain.UnifiedAnalysisRecord{ID: "prev-id", ChainID: "source_src-1"}}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	factory := &mockFactory{clients: map[string]*mockClient{"txt": {response: llm.Response{
		Parsed: map[string]any{"overall_mood": "flat"},
	}}}}

	a := newTestAnalyzer(repo, catalog, factory, nil)

	record, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil,
		[]domain.ContentItem{{ExternalID: "p1", Text: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, "prev-id", record.ParentID)
}

func TestRunScenarioChainIsSeparate(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	factory := &mockFactory{clients: map[string]*mockClient{"txt": {response: llm.Response{
		Parsed: map[string]any{"overall_mood": "flat"},
	}}}}

	a := newTestAnalyzer(repo, catalog, factory, nil)
	scenario := &domain.Scenario{ID: "sc-7"}

	record, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, scenario,
		[]domain.ContentItem{{ExternalID: "p1", Text: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, "source_src-1_scenario_sc-7", record.ChainID)
}

func TestRunUnresolvableKindDegradesNotFails(t *testing.T) {
	repo := &mockRepo{}
	// Registry serves images only; the text kind has no capable provider.
	catalog := &mockCatalog{providers: []domain.Provider{imageProvider("img")}}
	factory := &mockFactory{clients: map[string]*mockClient{"img": {response: llm.Response{
		Parsed: map[string]any{"visual_themes": []any{"cats"}},
		Tokens: domain.TokenCount{Request: 50, Response: 20},
		Vendor: "google",
		Model:  "gemini-test",
	}}}}

	a := newTestAnalyzer(repo, catalog, factory, nil)

	items := []domain.ContentItem{{
		ExternalID:  "p1",
		Text:        "caption text",
		Attachments: []domain.MediaAttachment{{Kind: domain.MediaKindImage, URL: "https://cdn/x.jpg"}},
	}}

	record, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil, items)
	require.NoError(t, err)

	assert.True(t, record.Degraded)
	assert.False(t, record.Summary.Empty)
	assert.Equal(t, []string{"cats"}, record.Summary.Topics)

	textResult := record.Results[domain.MediaKindText]
	assert.True(t, textResult.Failed())
	assert.Contains(t, textResult.Error, pipeerr.ErrNoProviderAvailable.Error())

	imageResult := record.Results[domain.MediaKindImage]
	assert.False(t, imageResult.Failed())
	assert.Equal(t, 70, record.TotalTokens)
}

func TestRunCallFailureDegradesOnlyItsKind(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt"), imageProvider("img")}}
	factory := &mockFactory{clients: map[string]*mockClient{
		"txt": {err: errors.New("upstream 500")},
		"img": {response: llm.Response{Parsed: map[string]any{"visual_themes": []any{"dogs"}}}},
	}}

	a := newTestAnalyzer(repo, catalog, factory, nil)

	items := []domain.ContentItem{{
		ExternalID:  "p1",
		Text:        "hello",
		Attachments: []domain.MediaAttachment{{Kind: domain.MediaKindImage, URL: "https://cdn/y.jpg"}},
	}}

	record, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil, items)
	require.NoError(t, err)

	assert.True(t, record.Degraded)
	assert.Contains(t, record.Results[domain.MediaKindText].Error, "upstream 500")
	assert.Equal(t, []string{"dogs"}, record.Summary.Topics)
}

func TestRunEmptyBatchStillPersisted(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	factory := &mockFactory{clients: map[string]*mockClient{}}

	a := newTestAnalyzer(repo, catalog, factory, nil)

	record, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil, nil)
	require.NoError(t, err)
	require.Len(t, repo.saved, 1)

	assert.True(t, record.Summary.Empty)
	assert.False(t, record.Degraded)
	assert.Zero(t, record.TotalTokens)
	assert.Zero(t, record.EstimatedCostCents)
}

func TestRunPersistenceFailureFailsRun(t *testing.T) {
	repo := &mockRepo{errSave: errors.New("connection reset")}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	factory := &mockFactory{clients: map[string]*mockClient{"txt": {response: llm.Response{
		Parsed: map[string]any{"overall_mood": "fine"},
	}}}}

	a := newTestAnalyzer(repo, catalog, factory, nil)

	_, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil,
		[]domain.ContentItem{{ExternalID: "p1", Text: "hi"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeerr.ErrPersistence)
}

func TestRunMediaURLsReachTheClient(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{imageProvider("img")}}
	client := &mockClient{response: llm.Response{Parsed: map[string]any{"mood": "bright"}}}
	factory := &mockFactory{clients: map[string]*mockClient{"img": client}}

	a := newTestAnalyzer(repo, catalog, factory, nil)

	items := []domain.ContentItem{{
		ExternalID:  "p1",
		Attachments: []domain.MediaAttachment{{Kind: domain.MediaKindImage, URL: "https://cdn/z.jpg"}},
	}}

	_, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil, items)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn/z.jpg"}, client.gotReq.MediaURLs)
}

func TestRunTruncatedSampleIsMarked(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	client := &mockClient{response: llm.Response{Parsed: map[string]any{"overall_mood": "busy"}}}
	factory := &mockFactory{clients: map[string]*mockClient{"txt": client}}

	a := New(
		classify.New(2),
		resolve.New(nil),
		prompt.NewBuilder(),
		factory,
		catalog,
		repo,
		nil,
		nil,
	)

	items := []domain.ContentItem{
		{ExternalID: "p1", Text: "one"},
		{ExternalID: "p2", Text: "two"},
		{ExternalID: "p3", Text: "three"},
	}

	_, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil, items)
	require.NoError(t, err)

	assert.Contains(t, client.gotReq.Prompt, "(sample truncated)")
	assert.Equal(t, 2, strings.Count(client.gotReq.Prompt, "likes:"))
}

func TestRunRecordsAnalysisDate(t *testing.T) {
	repo := &mockRepo{}
	catalog := &mockCatalog{providers: []domain.Provider{textProvider("txt")}}
	factory := &mockFactory{clients: map[string]*mockClient{"txt": {response: llm.Response{
		Parsed: map[string]any{"overall_mood": "fine"},
	}}}}

	a := newTestAnalyzer(repo, catalog, factory, nil)
	fixed := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	record, err := a.Run(context.Background(), domain.Source{ID: "src-1"}, nil,
		[]domain.ContentItem{{ExternalID: "p1", Text: "hi"}})
	require.NoError(t, err)

	assert.Equal(t, fixed, record.AnalysisDate)
}
