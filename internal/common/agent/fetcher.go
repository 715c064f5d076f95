// internal/common/agent/fetcher.go
package agent

import (
	"context"
	"sync"
)

// FetchStructuredAndSummary runs Ask and then the structured/summary pair on its answer.
func (c *Client) FetchStructuredAndSummary(ctx context.Context, sessionKey, query string) (StructuredResult, string) {
	raw := c.Ask(ctx, sessionKey, query)
	return c.FetchStructuredAndSummaryFromRawText(ctx, raw)
}

// FetchStructuredAndSummaryFromRawText issues the structured and summary calls concurrently
// and joins both. Any failure yields an empty result and an empty summary.
func (c *Client) FetchStructuredAndSummaryFromRawText(ctx context.Context, raw string) (StructuredResult, string) {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		result  StructuredResult
		summary string
	)
	errChan := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		r, err := c.StructuredResponse(ctx, raw)
		if err != nil {
			errChan <- err
			return
		}
		mu.Lock()
		result = r
		mu.Unlock()
	}()

	go func() {
		defer wg.Done()
		s, err := c.Summary(ctx, raw)
		if err != nil {
			errChan <- err
			return
		}
		mu.Lock()
		summary = s
		mu.Unlock()
	}()

	wg.Wait()
	close(errChan)

	failed := false
	for err := range errChan {
		failed = true
		c.logger.Error("structured fetch failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if failed {
		return StructuredResult{}, ""
	}

	c.logger.Info("structured info fetched", map[string]interface{}{
		"parkingCount": len(result.ParkingList),
		"toiletCount":  len(result.ToiletList),
		"hasSummary":   summary != "",
	})
	return result, summary
}
