// Package domain holds the core types shared across the analysis pipeline:
// collected content, provider configuration, scenarios, and the persisted
// analysis record.
package domain

import "time"

// MediaKind is the classification axis for content and provider capabilities.
type MediaKind string

// Supported media kinds.
const (
	MediaKindText  MediaKind = "text"
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// AllMediaKinds lists every kind in stable resolution/dispatch order.
//
//nolint:gochecknoglobals
var AllMediaKinds = []MediaKind{MediaKindText, MediaKindImage, MediaKindVideo, MediaKindAudio}

// Valid reports whether k is a recognized media kind.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaKindText, MediaKindImage, MediaKindVideo, MediaKindAudio:
		return true
	default:
		return false
	}
}

// MediaAttachment is a single media item attached to a content item.
type MediaAttachment struct {
	Kind MediaKind
	URL  string
}

// ContentItem is one collected unit (post, comment, reaction).
// Items are owned by the collector and read-only to the pipeline.
type ContentItem struct {
	ExternalID  string
	PublishedAt time.Time
	Text        string
	Attachments []MediaAttachment
	Likes       int
	Comments    int
	Views       int
}

// MediaRef points at one media attachment URL together with the item that
// carried it.
type MediaRef struct {
	ItemID string
	URL    string
}

// ClassifiedBatch is the in-memory result of partitioning a content batch by
// media kind. An item with both text and images contributes to both buckets.
type ClassifiedBatch struct {
	Text   []ContentItem
	Images []MediaRef
	Videos []MediaRef
	Audio  []MediaRef

	// TextTruncated is set when the text sample cap was exceeded and the
	// text bucket holds only the first N items.
	TextTruncated bool
}

// Kinds returns the media kinds with at least one entry, in stable order.
func (b ClassifiedBatch) Kinds() []MediaKind {
	kinds := make([]MediaKind, 0, len(AllMediaKinds))

	for _, k := range AllMediaKinds {
		if b.Has(k) {
			kinds = append(kinds, k)
		}
	}

	return kinds
}

// Has reports whether the bucket for kind is non-empty.
func (b ClassifiedBatch) Has(kind MediaKind) bool {
	switch kind {
	case MediaKindText:
		return len(b.Text) > 0
	case MediaKindImage:
		return len(b.Images) > 0
	case MediaKindVideo:
		return len(b.Videos) > 0
	case MediaKindAudio:
		return len(b.Audio) > 0
	default:
		return false
	}
}

// MediaURLs returns the URLs bucketed under a non-text kind.
func (b ClassifiedBatch) MediaURLs(kind MediaKind) []string {
	var refs []MediaRef

	switch kind {
	case MediaKindImage:
		refs = b.Images
	case MediaKindVideo:
		refs = b.Videos
	case MediaKindAudio:
		refs = b.Audio
	default:
		return nil
	}

	urls := make([]string, len(refs))
	for i, ref := range refs {
		urls[i] = ref.URL
	}

	return urls
}

// Strategy controls automatic provider selection.
type Strategy string

// Supported selection strategies.
const (
	StrategyCostEfficient Strategy = "cost-efficient"
	StrategyQuality       Strategy = "quality"
	StrategyMultimodal    Strategy = "multimodal"
)

// ProviderType tags the wire protocol family of a configured backend.
type ProviderType string

// Known provider types. Unknown values are treated as OpenAI-compatible.
const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeGoogle    ProviderType = "google"
	ProviderTypeCustom    ProviderType = "custom"
)

// ProviderConfig is free-form per-provider tuning. Unknown keys from operator
// configuration are passed through in Extra unchanged.
type ProviderConfig struct {
	Temperature float32        `json:"temperature,omitempty"`
	MaxTokens   int            `json:"max_tokens,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Provider is one configured LLM backend.
type Provider struct {
	ID            string
	Name          string
	Type          ProviderType
	Capabilities  []MediaKind
	Endpoint      string
	CredentialRef string
	Model         string
	Active        bool
	// CostPer1K is the estimated USD cost per 1000 tokens.
	CostPer1K float64
	// Premium marks the provider preferred under the quality strategy.
	Premium bool
	Config  ProviderConfig
}

// Supports reports whether the provider declares the given capability.
func (p Provider) Supports(kind MediaKind) bool {
	for _, c := range p.Capabilities {
		if c == kind {
			return true
		}
	}

	return false
}

// SupportsAll reports whether the provider declares every given capability.
func (p Provider) SupportsAll(kinds []MediaKind) bool {
	for _, k := range kinds {
		if !p.Supports(k) {
			return false
		}
	}

	return true
}

// Scenario is the operator-authored analysis configuration for a source.
type Scenario struct {
	ID            string
	ContentKinds  []string
	AnalysisKinds []string
	// Config is keyed by analysis kind or free-form variable name; it never
	// duplicates the AnalysisKinds list itself.
	Config map[string]any
	// Prompts holds optional custom prompt templates per media kind.
	Prompts  map[MediaKind]string
	Strategy Strategy
	// ProviderOverrides maps a media kind to an explicit provider id.
	ProviderOverrides map[MediaKind]string
	IntervalMinutes   int
}

// PromptFor returns the custom template for kind, empty when none is set.
func (s *Scenario) PromptFor(kind MediaKind) string {
	if s == nil {
		return ""
	}

	return s.Prompts[kind]
}

// TokenCount carries request/response token counts for one LLM call.
type TokenCount struct {
	Request  int `json:"request"`
	Response int `json:"response"`
	// Estimated is set when the API did not report usage and counts were
	// derived from a character heuristic.
	Estimated bool `json:"estimated,omitempty"`
}

// Total returns request plus response tokens.
func (t TokenCount) Total() int {
	return t.Request + t.Response
}

// AnalysisResult is the per-media-kind outcome of one dispatch.
type AnalysisResult struct {
	Kind   MediaKind      `json:"kind"`
	Parsed map[string]any `json:"parsed,omitempty"`
	Tokens TokenCount     `json:"tokens"`
	// Provider is the id of the registry entry that served the call.
	Provider string `json:"provider,omitempty"`
	// Vendor is the effective provider name used for billing attribution,
	// inferred from the endpoint when the registry entry is a generic
	// custom type.
	Vendor  string        `json:"vendor,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// Failed reports whether the dispatch for this kind produced no usable result.
func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}

// ContentStats describes the analyzed input batch, including the content's
// own date range as distinct from the analysis date.
type ContentStats struct {
	Items           int               `json:"items"`
	TextItems       int               `json:"text_items"`
	MediaCounts     map[MediaKind]int `json:"media_counts,omitempty"`
	EarliestContent time.Time         `json:"earliest_content"`
	LatestContent   time.Time         `json:"latest_content"`
}

// UnifiedSummary is the merged cross-kind analysis payload.
type UnifiedSummary struct {
	Topics         []string              `json:"topics,omitempty"`
	Sentiment      string                `json:"sentiment,omitempty"`
	SentimentScore float64               `json:"sentiment_score,omitempty"`
	Highlights     []string              `json:"highlights,omitempty"`
	Distribution   map[MediaKind]float64 `json:"distribution,omitempty"`
	// Empty marks a run where no kind produced a usable result; the record
	// is persisted anyway so chain and checkpoint state stay consistent.
	Empty bool `json:"empty,omitempty"`
}

// UnifiedAnalysisRecord is the persisted artifact of one orchestration run.
// Records are append-only; superseded analyses are earlier rows in the chain.
type UnifiedAnalysisRecord struct {
	ID           string
	SourceID     string
	ScenarioID   string
	AnalysisDate time.Time
	ChainID      string
	ParentID     string
	Results      map[MediaKind]AnalysisResult
	Summary      UnifiedSummary
	Stats        ContentStats
	TotalTokens  int
	// EstimatedCostCents is the run cost in integer minor currency units.
	EstimatedCostCents int64
	Degraded           bool
	// Prompts retains the prompt text actually sent, per kind, for audit.
	Prompts map[MediaKind]string
}

// Source is one configured collection target.
type Source struct {
	ID          string
	Platform    string
	ExternalRef string
	ScenarioID  string
	// LastCheckedAt is zero when the source has never been collected.
	LastCheckedAt time.Time
	// Checkpoint is the last successfully processed content timestamp or
	// platform cursor.
	Checkpoint string
	// DateFrom/DateTo are optional free-form collection window overrides
	// that take precedence over the checkpoint when present.
	DateFrom string
	DateTo   string
	Active   bool
}
