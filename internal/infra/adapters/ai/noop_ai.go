package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/JoseGikaara/instantsite-sub000/internal/domain/ports/adapter"
)

var _ adapter.ContentEnhancer = (*NoopEnhancer)(nil)

// NoopEnhancer implements adapter.ContentEnhancer for local/dev runs without
// an API key. It returns deterministic placeholder copy.
type NoopEnhancer struct{}

func NewNoopEnhancer() *NoopEnhancer {
	return &NoopEnhancer{}
}

func (a *NoopEnhancer) Name() string { return "noop" }

func (a *NoopEnhancer) Enhance(ctx context.Context, siteName, brief string) (adapter.SiteCopy, error) {
	// Simulate slight processing time and respect ctx.
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return adapter.SiteCopy{}, ctx.Err()
	}
	return adapter.SiteCopy{
		Headline: fmt.Sprintf("Welcome to %s", siteName),
		Tagline:  "Placeholder tagline for local development",
		About:    fmt.Sprintf("%s — %s", siteName, brief),
	}, nil
}
