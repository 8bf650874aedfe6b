// Package classify partitions collected content batches into per-media-kind
// buckets consumed by the provider resolver and the dispatch step.
package classify

import (
	"strings"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// DefaultTextSampleLimit bounds the number of text items carried into a
// prompt. Exceeding it is not an error: the bucket is truncated and the
// batch flagged.
const DefaultTextSampleLimit = 50

// Classifier buckets content items by media kind. It is pure: no I/O, no
// side effects, deterministic for a given input.
type Classifier struct {
	textSampleLimit int
}

// New creates a classifier with the given text sample cap. A non-positive
// limit falls back to DefaultTextSampleLimit.
func New(textSampleLimit int) *Classifier {
	if textSampleLimit <= 0 {
		textSampleLimit = DefaultTextSampleLimit
	}

	return &Classifier{textSampleLimit: textSampleLimit}
}

// Classify partitions items into buckets. Classification is non-exclusive:
// an item with both text and attachments contributes to every matching
// bucket. Every attachment URL lands in exactly one bucket, the one matching
// its declared kind; attachments with an unknown kind are dropped.
func (c *Classifier) Classify(items []domain.ContentItem) domain.ClassifiedBatch {
	var batch domain.ClassifiedBatch

	for _, item := range items {
		if strings.TrimSpace(item.Text) != "" {
			if len(batch.Text) < c.textSampleLimit {
				batch.Text = append(batch.Text, item)
			} else {
				batch.TextTruncated = true
			}
		}

		for _, att := range item.Attachments {
			if att.URL == "" {
				continue
			}

			ref := domain.MediaRef{ItemID: item.ExternalID, URL: att.URL}

			switch att.Kind {
			case domain.MediaKindImage:
				batch.Images = append(batch.Images, ref)
			case domain.MediaKindVideo:
				batch.Videos = append(batch.Videos, ref)
			case domain.MediaKindAudio:
				batch.Audio = append(batch.Audio, ref)
			}
		}
	}

	return batch
}

// Stats derives content statistics for a batch of input items, including the
// content's own date range. The date range reflects when content was
// published, not when the analysis ran.
func Stats(items []domain.ContentItem, batch domain.ClassifiedBatch) domain.ContentStats {
	stats := domain.ContentStats{
		Items:     len(items),
		TextItems: len(batch.Text),
	}

	counts := map[domain.MediaKind]int{}
	if n := len(batch.Images); n > 0 {
		counts[domain.MediaKindImage] = n
	}

	if n := len(batch.Videos); n > 0 {
		counts[domain.MediaKindVideo] = n
	}

	if n := len(batch.Audio); n > 0 {
		counts[domain.MediaKindAudio] = n
	}

	if len(counts) > 0 {
		stats.MediaCounts = counts
	}

	for _, item := range items {
		if item.PublishedAt.IsZero() {
			continue
		}

		if stats.EarliestContent.IsZero() || item.PublishedAt.Before(stats.EarliestContent) {
			stats.EarliestContent = item.PublishedAt
		}

		if item.PublishedAt.After(stats.LatestContent) {
			stats.LatestContent = item.PublishedAt
		}
	}

	return stats
}
