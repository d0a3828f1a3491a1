package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/tagcheck/logging"
)

// Analyzer runs the validate, fetch, extract and score pipeline for one URL.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	resolver Resolver
	fetcher  Fetcher
	logger   logrus.FieldLogger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithResolver replaces the DNS resolver used by URL validation.
func WithResolver(r Resolver) Option {
	return func(a *Analyzer) { a.resolver = r }
}

// WithFetcher replaces the page fetcher.
func WithFetcher(f Fetcher) Option {
	return func(a *Analyzer) { a.fetcher = f }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer using the system resolver and an HTTP fetcher with
// default limits unless overridden.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	if a.resolver == nil {
		a.resolver = net.DefaultResolver
	}
	if a.fetcher == nil {
		a.fetcher = NewHTTPFetcher(FetchOptions{})
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}
	return a
}

// Analyze fetches rawURL and evaluates its meta tags.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*Result, error) {
	start := time.Now()
	log := a.logger.WithField("url", rawURL)

	u, err := ValidateURL(ctx, a.resolver, rawURL)
	if err != nil {
		log.WithField("kind", KindOf(err)).Info("url rejected")
		return nil, err
	}

	page, err := a.fetcher.Fetch(ctx, u)
	if err != nil {
		err = asAnalysisError(err)
		log.WithFields(logrus.Fields{
			"kind":  KindOf(err),
			"error": err,
		}).Warn("fetch failed")
		return nil, err
	}

	analysis, err := Extract(page.HTML, page.FinalURL)
	if err != nil {
		return nil, newError(KindUnknown, msgUnknown, fmt.Errorf("parse html: %w", err))
	}

	issues, score := Evaluate(analysis)

	log.WithFields(logrus.Fields{
		"final_url": analysis.URL,
		"overall":   score.Overall,
		"issues":    len(issues),
		"duration":  time.Since(start).String(),
	}).Debug("analysis complete")

	return &Result{Analysis: analysis, Score: score, Issues: issues}, nil
}

// asAnalysisError makes sure every pipeline failure carries a Kind.
func asAnalysisError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return newError(KindUnknown, msgUnknown, err)
}
