package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// WaitFor polls url until it answers with status or timeout elapses.
func (r *Runner) WaitFor(ctx context.Context, url string, status int, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	log := r.logger.WithFields(logrus.Fields{"url": url, "status": status})
	log.WithField("timeout", timeout).Info("waiting for service")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	lastStatus := 0
	for {
		resp, err := r.client.Get(ctx, url)
		if err != nil {
			lastErr = err
		} else {
			lastStatus = resp.StatusCode
			if resp.StatusCode == status {
				log.Info("service is ready")
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastStatus == 0 && lastErr != nil {
				return fmt.Errorf("service %s not ready after %v: %w", url, timeout, lastErr)
			}
			return fmt.Errorf("service %s not ready after %v: got status %d, expected %d", url, timeout, lastStatus, status)
		case <-ticker.C:
		}
	}
}
