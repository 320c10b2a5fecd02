package monitor

import (
	"slices"
	"time"

	"sjsage522/wuweimonitor/internal/crawler"
)

// Snapshot is one refreshed batch of products together with the time it
// was stored. A zero LastUpdate means no refresh has succeeded yet.
type Snapshot struct {
	Products   []crawler.ProductRecord
	LastUpdate time.Time
}

// Summary holds the counts shown on the dashboard
type Summary struct {
	TotalCount       int     `json:"total_count"`
	TargetCount      int     `json:"target_count"`
	TargetPercentage float64 `json:"target_percentage"`
}

// IsZero reports whether the snapshot has never been filled
func (s Snapshot) IsZero() bool {
	return s.LastUpdate.IsZero()
}

// Targets returns only the target products, in batch order
func (s Snapshot) Targets() []crawler.ProductRecord {
	targets := make([]crawler.ProductRecord, 0, len(s.Products))
	for _, p := range s.Products {
		if p.IsTarget {
			targets = append(targets, p)
		}
	}
	return targets
}

// Summary counts the batch. The percentage is 0 for an empty batch.
func (s Snapshot) Summary() Summary {
	summary := Summary{TotalCount: len(s.Products)}
	for _, p := range s.Products {
		if p.IsTarget {
			summary.TargetCount++
		}
	}
	if summary.TotalCount > 0 {
		summary.TargetPercentage = float64(summary.TargetCount) / float64(summary.TotalCount) * 100
	}
	return summary
}

func (s Snapshot) clone() Snapshot {
	return Snapshot{
		Products:   slices.Clone(s.Products),
		LastUpdate: s.LastUpdate,
	}
}
