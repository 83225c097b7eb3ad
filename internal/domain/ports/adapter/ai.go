package adapter

import "context"

// SiteCopy is the generated marketing text for a templated section.
type SiteCopy struct {
	Headline string `json:"headline"`
	Tagline  string `json:"tagline"`
	About    string `json:"about"`
}

// ContentEnhancer is the boundary port for AI copywriting. The subsystem only
// deducts credits around these calls; it does not depend on provider
// internals.
type ContentEnhancer interface {
	// Enhance rewrites the site's copy from a short agent-supplied brief.
	Enhance(ctx context.Context, siteName, brief string) (SiteCopy, error)
	// Name identifies the provider for logs and metrics.
	Name() string
}
