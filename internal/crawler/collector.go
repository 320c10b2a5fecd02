package crawler

import (
	"context"
	"time"

	"sjsage522/wuweimonitor/logger"
	"sjsage522/wuweimonitor/pkg/errors"
)

// Collector runs the assembler over every product URL of a refresh.
// Products are fetched one at a time with Delay between requests.
type Collector struct {
	Source    URLSource
	Assembler RecordAssembler
	Delay     time.Duration
	Logger    *logger.Logger
}

// NewCollector creates a collector
func NewCollector(source URLSource, assembler RecordAssembler, delay time.Duration) *Collector {
	return &Collector{
		Source:    source,
		Assembler: assembler,
		Delay:     delay,
		Logger:    logger.ForCrawler("jiaoyimao"),
	}
}

// Collect assembles a new batch. Products that fail are dropped from the
// batch; an error is returned only when the batch as a whole failed.
func (c *Collector) Collect(ctx context.Context) ([]ProductRecord, error) {
	urls, err := c.Source.ProductURLs(ctx)
	if err != nil {
		return nil, errors.NewRefresh("failed to list product URLs", err)
	}

	records := make([]ProductRecord, 0, len(urls))
	for i, u := range urls {
		if i > 0 {
			if err := c.wait(ctx); err != nil {
				return nil, errors.NewRefresh("refresh interrupted", err)
			}
		}

		record, err := c.Assembler.Assemble(ctx, u)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.NewRefresh("refresh interrupted", ctxErr)
			}
			if c.Logger != nil {
				c.Logger.Warn().Err(err).Str("url", u).Msg("Dropping product")
			}
			continue
		}

		if c.Logger != nil {
			c.Logger.Debug().
				Str("url", record.URL).
				Float64("price", record.Price).
				Int("wuwei_points", record.WuweiPoints).
				Float64("discount", record.Discount).
				Bool("target", record.IsTarget).
				Msg("Product processed")
		}
		records = append(records, record)
	}

	return records, nil
}

// wait sleeps for the pacing delay unless ctx ends first
func (c *Collector) wait(ctx context.Context) error {
	if c.Delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
