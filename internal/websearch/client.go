// Package websearch looks up short encyclopedic context for legal questions on Wikipedia and
// the DuckDuckGo instant answer API.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"nyaymitra/internal/contextutil"
)

const (
	// DefaultUserAgent identifies the assistant to the upstream APIs.
	DefaultUserAgent = "NyayMitra/1.0 (Educational)"

	defaultWikipediaURL  = "https://en.wikipedia.org"
	defaultDuckDuckGoURL = "https://api.duckduckgo.com"

	providerWikipedia  = "wikipedia"
	providerDuckDuckGo = "duckduckgo"
	providerCache      = "cache"

	outcomeHit   = "hit"
	outcomeMiss  = "miss"
	outcomeError = "error"

	lawBias = " India law"
)

// ErrUnavailable is returned when every provider lookup failed.
var ErrUnavailable = errors.New("web search unavailable")

// ErrHostNotAllowed is returned for requests to hosts outside the allow-list.
var ErrHostNotAllowed = errors.New("host not allowed")

// DefaultAllowedHosts lists the only hosts the client may contact.
var DefaultAllowedHosts = []string{"en.wikipedia.org", "wikipedia.org", "api.duckduckgo.com"}

var (
	sectionPattern = regexp.MustCompile(`\bsec(tion)?\.?\s*([0-9a-z\-]+)\b`)
	penalPattern   = regexp.MustCompile(`\bipc\b|\bbns\b|\bindian penal code\b|\bbharatiya nyaya sanhita\b`)
	articlePattern = regexp.MustCompile(`\barticle\b|\bconstitution\b`)
)

// Source is a page the context was taken from.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Result is the merged text of all providers plus the pages it came from.
type Result struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Empty reports whether the lookup produced no text.
func (r Result) Empty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// Observer receives one notification per provider lookup.
type Observer interface {
	ObserveWebSearch(provider, outcome string)
}

// Config configures a Client. Zero values fall back to defaults.
type Config struct {
	Enabled           bool
	Timeout           time.Duration
	CacheSize         int
	CacheTTL          time.Duration
	RequestsPerSecond float64
	UserAgent         string
	WikipediaURL      string
	DuckDuckGoURL     string
	AllowedHosts      []string
	Observer          Observer
}

// Client queries Wikipedia and DuckDuckGo concurrently and merges their answers.
type Client struct {
	http          *resty.Client
	enabled       bool
	wikipediaURL  string
	duckDuckGoURL string
	allowed       map[string]struct{}
	limiter       *rate.Limiter
	cache         *expirable.LRU[string, Result]
	observer      Observer
}

// NewClient creates a web search client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.WikipediaURL == "" {
		cfg.WikipediaURL = defaultWikipediaURL
	}
	if cfg.DuckDuckGoURL == "" {
		cfg.DuckDuckGoURL = defaultDuckDuckGoURL
	}
	if len(cfg.AllowedHosts) == 0 {
		cfg.AllowedHosts = DefaultAllowedHosts
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		allowed[strings.ToLower(h)] = struct{}{}
	}

	c := &Client{
		http: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", cfg.UserAgent).
			SetHeader("Accept", "application/json"),
		enabled:       cfg.Enabled,
		wikipediaURL:  strings.TrimSuffix(cfg.WikipediaURL, "/"),
		duckDuckGoURL: strings.TrimSuffix(cfg.DuckDuckGoURL, "/"),
		allowed:       allowed,
		limiter:       rate.NewLimiter(limit, 2),
		observer:      cfg.Observer,
	}
	if cfg.CacheSize > 0 {
		c.cache = expirable.NewLRU[string, Result](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return c
}

// Enabled reports whether lookups are performed at all.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// CandidateQueries returns the search terms tried for query. A bare "section N" question that
// names neither a penal code nor the constitution is ambiguous and expands to both readings.
func CandidateQueries(query string) []string {
	lower := strings.ToLower(query)

	candidates := []string{query}
	if m := sectionPattern.FindStringSubmatch(lower); m != nil &&
		!penalPattern.MatchString(lower) && !articlePattern.MatchString(lower) {
		sec := m[2]
		candidates = []string{
			fmt.Sprintf("IPC Section %s (India)", sec),
			fmt.Sprintf("Article %s of the Constitution of India", sec),
		}
	}

	for i := range candidates {
		candidates[i] += lawBias
	}
	return candidates
}

// Search looks query up on every provider. Provider failures are logged and skipped; an error is
// returned only when ctx ends or when no provider could be reached at all.
func (c *Client) Search(ctx context.Context, query string) (Result, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if !c.Enabled() || strings.TrimSpace(query) == "" {
		return Result{}, nil
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(query); ok {
			c.observe(providerCache, outcomeHit)
			return cached, nil
		}
	}

	var (
		texts   []string
		sources []Source
		tally   attemptTally
	)

	for _, term := range CandidateQueries(query) {
		block, found := c.lookup(ctx, term, &tally)
		if len(block) > 0 {
			texts = append(texts, "• "+term+"\n"+strings.Join(block, "\n\n"))
			sources = append(sources, found...)
		}
	}

	if len(texts) == 0 {
		block, found := c.lookup(ctx, query, &tally)
		if len(block) > 0 {
			texts = append(texts, strings.Join(block, "\n\n"))
			sources = append(sources, found...)
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(texts) == 0 && tally.allFailed() {
		logger.WarnContext(ctx, "web search failed on every provider", "query", query, "error", tally.lastErr)
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, tally.lastErr)
	}

	result := Result{Text: strings.Join(texts, "\n\n"), Sources: sources}
	if c.cache != nil && !result.Empty() {
		c.cache.Add(query, result)
	}
	logger.InfoContext(ctx, "web search complete", "query", query, "characters", len(result.Text), "sources", len(sources))
	return result, nil
}

type attemptTally struct {
	mu       sync.Mutex
	attempts int
	failures int
	lastErr  error
}

func (t *attemptTally) record(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if err != nil {
		t.failures++
		t.lastErr = err
	}
}

func (t *attemptTally) allFailed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts > 0 && t.failures == t.attempts
}

// lookup queries both providers concurrently for term and returns the non-empty texts in
// provider order (Wikipedia first) with their sources.
func (c *Client) lookup(ctx context.Context, term string, tally *attemptTally) ([]string, []Source) {
	logger := contextutil.LoggerFromContext(ctx)

	var wiki, ddg providerAnswer
	var g errgroup.Group
	g.Go(func() error {
		var err error
		wiki, err = c.fetchWikipedia(ctx, term)
		tally.record(err)
		if err != nil {
			logger.WarnContext(ctx, "wikipedia lookup failed", "term", term, "error", err)
		}
		c.observe(providerWikipedia, outcomeOf(wiki, err))
		return nil
	})
	g.Go(func() error {
		var err error
		ddg, err = c.fetchDuckDuckGo(ctx, term)
		tally.record(err)
		if err != nil {
			logger.WarnContext(ctx, "duckduckgo lookup failed", "term", term, "error", err)
		}
		c.observe(providerDuckDuckGo, outcomeOf(ddg, err))
		return nil
	})
	_ = g.Wait()

	var texts []string
	var sources []Source
	for _, a := range []providerAnswer{wiki, ddg} {
		if a.text == "" {
			continue
		}
		texts = append(texts, a.text)
		if a.source != nil {
			sources = append(sources, *a.source)
		}
	}
	return texts, sources
}

type providerAnswer struct {
	text   string
	source *Source
}

func outcomeOf(a providerAnswer, err error) string {
	switch {
	case err != nil:
		return outcomeError
	case a.text == "":
		return outcomeMiss
	default:
		return outcomeHit
	}
}

func (c *Client) observe(provider, outcome string) {
	if c.observer != nil {
		c.observer.ObserveWebSearch(provider, outcome)
	}
}

// request prepares a rate-limited request to an allow-listed host.
func (c *Client) request(ctx context.Context, rawURL string) (*resty.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if _, ok := c.allowed[strings.ToLower(u.Hostname())]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, u.Hostname())
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.http.R().SetContext(ctx).ForceContentType("application/json"), nil
}

func checkResponse(resp *resty.Response) error {
	if resp.IsError() {
		return fmt.Errorf("%s returned status %d", resp.Request.URL, resp.StatusCode())
	}
	return nil
}
