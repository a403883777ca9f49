// Package pipeline loads both sides of a topic, runs the analysis and its
// verifiers, and maintains the per-topic report cache.
package pipeline

import (
	"context"
	"fmt"

	"github.com/ppiankov/gwaln/internal/analyze"
	"github.com/ppiankov/gwaln/internal/cache"
	"github.com/ppiankov/gwaln/internal/llm"
	"github.com/ppiankov/gwaln/internal/logging"
	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/parse"
	"github.com/ppiankov/gwaln/internal/report"
	"github.com/ppiankov/gwaln/internal/util"
	"github.com/ppiankov/gwaln/internal/validate"
	"golang.org/x/sync/errgroup"
)

// BiasVerifier second-guesses heuristic bias events
type BiasVerifier interface {
	IsEnabled() bool
	Verify(ctx context.Context, events []model.DiscrepancyRecord, wikiText, grokText string) []model.BiasVerification
}

// CitationVerifier checks sentences against cited pages
type CitationVerifier interface {
	Verify(ctx context.Context, sentences []string, urls []string) []model.CitationVerification
}

// Pipeline orchestrates one comparison per topic
type Pipeline struct {
	loader    *Loader
	parsers   *parse.Registry
	analyzer  *analyze.Analyzer
	bias      BiasVerifier     // nil when disabled
	citations CitationVerifier // nil when disabled
	store     *cache.DiskCache // nil when caching is off
	config    *model.Config
}

// NewPipeline wires a pipeline from configuration. The LLM provider and the
// citation verifier are only created when configured.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}

	limiter := util.NewLimiterFromConfig(cfg.RateLimiting)

	p := &Pipeline{
		loader:   NewLoader(NewFetcher(cfg.HTTP, limiter)),
		parsers:  parse.NewRegistry(),
		analyzer: analyze.NewAnalyzer(),
		config:   cfg,
	}

	if cfg.LLM.Provider != "" {
		llmConfig := llm.ConfigFromModel(cfg)
		verifier, err := llm.NewBiasVerifier(llmConfig)
		if err != nil {
			return nil, fmt.Errorf("bias verifier: %w", err)
		}
		p.bias = verifier
		logging.Debug("bias verifier enabled", "provider", verifier.ProviderName(), "model", cfg.LLM.Model)
	}

	if cfg.Citations.Enabled {
		p.citations = validate.NewCitationVerifier(cfg, limiter)
	}

	if cfg.Cache.Enabled {
		p.store = cache.NewDiskCache(cfg.Cache.Dir, cfg.Cache.TTL())
	}

	return p, nil
}

// WithBiasVerifier replaces the bias verifier; nil disables it
func (p *Pipeline) WithBiasVerifier(v BiasVerifier) *Pipeline {
	p.bias = v
	return p
}

// WithCitationVerifier replaces the citation verifier; nil disables it
func (p *Pipeline) WithCitationVerifier(v CitationVerifier) *Pipeline {
	p.citations = v
	return p
}

// WithAnalyzer replaces the analyzer (tests pin its clock)
func (p *Pipeline) WithAnalyzer(a *analyze.Analyzer) *Pipeline {
	p.analyzer = a
	return p
}

// Store returns the report cache, or nil when caching is off
func (p *Pipeline) Store() *cache.DiskCache {
	return p.store
}

// Result is the outcome of comparing one topic
type Result struct {
	Topic       model.Topic
	Report      *model.StructuredAnalysisReport
	CacheStatus cache.Status // Status found before this run; empty when caching is off
	CachePath   string
	Reused      bool // Report served from cache without recomputing
}

// CompareOptions tunes a single comparison
type CompareOptions struct {
	// Force recomputes even when the cached report is fresh
	Force bool
}

// Compare loads and parses both sides, then serves the cached report when it
// is fresh for the same content, or analyzes, verifies and caches a new one.
func (p *Pipeline) Compare(ctx context.Context, topic model.Topic, opts CompareOptions) (*Result, error) {
	if topic.ID == "" {
		return nil, fmt.Errorf("topic has no id")
	}

	wiki, grok, err := p.loadBoth(ctx, topic)
	if err != nil {
		return nil, err
	}

	hash := cache.ContentHash(wiki.Text, grok.Text)
	result := &Result{Topic: topic}

	if p.store != nil {
		probe := p.store.Probe(topic.ID, hash)
		result.CacheStatus = probe.Status
		result.CachePath = probe.Path
		logging.Debug("cache probe", "topic", topic.ID, "status", probe.Status, "path", probe.Path)

		if probe.Usable() && !opts.Force {
			if !report.IsStructured(probe.Document) {
				logging.Debug("upgrading legacy cached payload", "topic", topic.ID)
			}
			if rep := report.Coerce(topic, probe.Document); rep != nil {
				result.Report = rep
				result.Reused = true
				return result, nil
			}
		}
	}

	payload := p.analyzer.Analyze(analyze.Input{
		Wiki:     wiki.Article,
		Grok:     grok.Article,
		WikiText: wiki.Text,
		GrokText: grok.Text,
	})

	payload, err = p.verify(ctx, payload, wiki, grok)
	if err != nil {
		return nil, err
	}

	result.Report = report.Build(topic, payload)

	if p.store != nil {
		if err := p.store.Write(topic.ID, result.Report); err != nil {
			return nil, fmt.Errorf("write cache: %w", err)
		}
		logging.Info("report cached", "topic", topic.ID, "path", result.CachePath)
	}

	return result, nil
}

// loadBoth loads and parses the two sides concurrently
func (p *Pipeline) loadBoth(ctx context.Context, topic model.Topic) (*parse.Result, *parse.Result, error) {
	var wiki, grok *parse.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		wiki, err = p.loadSide(gctx, topic, topic.WikipediaURL, "wikipedia")
		return err
	})
	g.Go(func() error {
		var err error
		grok, err = p.loadSide(gctx, topic, topic.GrokipediaURL, "grokipedia")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return wiki, grok, nil
}

func (p *Pipeline) loadSide(ctx context.Context, topic model.Topic, location, side string) (*parse.Result, error) {
	if location == "" {
		return nil, fmt.Errorf("topic %s: no %s source", topic.ID, side)
	}

	src, err := p.loader.Load(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", side, err)
	}

	parsed, err := p.parsers.Parse(src.Content, src.Location, src.ContentType, topic.DisplayTitle())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", side, err)
	}

	logging.Debug("source parsed", "topic", topic.ID, "side", side,
		"sections", len(parsed.Article.Sections), "claims", len(parsed.Article.Claims))
	return parsed, nil
}

// verify runs the enabled verifiers concurrently. Verifier failures are
// reported per item, so only cancellation stops the comparison.
func (p *Pipeline) verify(ctx context.Context, payload *model.AnalysisPayload, wiki, grok *parse.Result) (*model.AnalysisPayload, error) {
	var biasResults []model.BiasVerification
	var citationResults []model.CitationVerification

	g, gctx := errgroup.WithContext(ctx)

	if p.bias != nil && p.bias.IsEnabled() && len(payload.BiasEvents) > 0 {
		g.Go(func() error {
			biasResults = p.bias.Verify(gctx, payload.BiasEvents, wiki.Text, grok.Text)
			return gctx.Err()
		})
	}

	if p.citations != nil {
		sentences := p.citationSentences(payload)
		if len(sentences) > 0 {
			urls := analyze.CitationURLs(grok.Text, grok.Article.References)
			g.Go(func() error {
				citationResults = p.citations.Verify(gctx, sentences, urls)
				return gctx.Err()
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	if biasResults == nil && citationResults == nil {
		return payload, nil
	}
	return payload.WithVerifications(biasResults, citationResults), nil
}

// citationSentences are the Grokipedia sentences with no Wikipedia
// counterpart, capped by citations.max_sentences
func (p *Pipeline) citationSentences(payload *model.AnalysisPayload) []string {
	sentences := payload.Sentences.Extra
	if limit := p.config.Citations.MaxSentences; limit > 0 && len(sentences) > limit {
		sentences = sentences[:limit]
	}
	return sentences
}
