// Package pubmed scrapes article metadata from PubMed search results.
package pubmed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ppiankov/litscreen/internal/cache"
	"github.com/ppiankov/litscreen/internal/model"
	"github.com/ppiankov/litscreen/internal/worker"
)

// ErrDisallowed is returned for URLs robots.txt forbids
var ErrDisallowed = errors.New("disallowed by robots.txt")

// Client fetches search and article pages, paced per host
type Client struct {
	baseURL  string
	fetcher  *Fetcher
	robots   *RobotsChecker
	limiter  *worker.Limiter
	cache    cache.Cache
	cacheTTL time.Duration
	log      logrus.FieldLogger
}

// NewClient builds a client from cfg. Pages are cached in c for ttl; a nil
// cache disables caching.
func NewClient(cfg model.ScrapeConfig, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *Client {
	if c == nil {
		c = cache.NoopCache{}
	}

	var rps float64
	if cfg.PageDelay > 0 {
		rps = 1 / cfg.PageDelay.Seconds()
	}

	client := &Client{
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		fetcher:  NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes, "", ""),
		limiter:  worker.NewLimiter(rps, 1),
		cache:    c,
		cacheTTL: ttl,
		log:      log,
	}
	if cfg.RespectRobots {
		client.robots = NewRobotsChecker(cfg.UserAgent, cfg.Timeout)
	}
	return client
}

// SearchURL returns the URL of one result page for term
func (c *Client) SearchURL(term string, page int) string {
	params := url.Values{"term": {term}}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	return c.baseURL + "/?" + params.Encode()
}

// ResultPages returns the number of result pages for term
func (c *Client) ResultPages(ctx context.Context, term string) (int, error) {
	body, err := c.get(ctx, c.SearchURL(term, 0), false)
	if err != nil {
		return 0, fmt.Errorf("search %q: %w", term, err)
	}
	count, err := ParseResultCount(bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	c.log.WithFields(logrus.Fields{"term": term, "results": count}).Info("PubMed search")
	return PageCount(count), nil
}

// Scrape collects the articles on result pages start through
// min(pages, end), counting from 1. Articles that fail to load are logged
// and skipped.
func (c *Client) Scrape(ctx context.Context, term string, start, end int) ([]model.Article, error) {
	pages, err := c.ResultPages(ctx, term)
	if err != nil {
		return nil, err
	}
	start = max(start, 1)
	end = min(end, pages)

	var articles []model.Article
	for page := start; page <= end; page++ {
		links, err := c.searchPage(ctx, term, page)
		if err != nil {
			return articles, err
		}

		for _, link := range links {
			art, ok, err := c.Article(ctx, link)
			if err != nil {
				if ctx.Err() != nil {
					return articles, ctx.Err()
				}
				c.log.WithError(err).WithField("pmid", link.PMID).Warn("Skipping article")
				continue
			}
			if !ok {
				c.log.WithField("pmid", link.PMID).Debug("No abstract, skipping")
				continue
			}
			articles = append(articles, art)
		}

		c.log.WithFields(logrus.Fields{
			"page":     page,
			"links":    len(links),
			"articles": len(articles),
		}).Info("Scraped result page")
	}
	return articles, nil
}

func (c *Client) searchPage(ctx context.Context, term string, page int) ([]Link, error) {
	body, err := c.get(ctx, c.SearchURL(term, page), false)
	if err != nil {
		return nil, fmt.Errorf("result page %d: %w", page, err)
	}
	return ParseSearchPage(bytes.NewReader(body))
}

// Article fetches and parses one article page. ok is false when the article
// has no abstract.
func (c *Client) Article(ctx context.Context, link Link) (model.Article, bool, error) {
	articleURL := c.baseURL + link.Href
	body, err := c.get(ctx, articleURL, true)
	if err != nil {
		return model.Article{}, false, err
	}
	return ParseArticle(bytes.NewReader(body), link.PMID, articleURL)
}

// get fetches rawURL through robots, the limiter and, for cacheable pages,
// the page cache
func (c *Client) get(ctx context.Context, rawURL string, cacheable bool) ([]byte, error) {
	key := cache.CacheKey(cache.NamespacePage, rawURL)
	if cacheable {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}
	}

	var crawlDelay time.Duration
	if c.robots != nil {
		allowed, delay, err := c.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	host, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.WaitWithDelay(ctx, host, crawlDelay); err != nil {
		return nil, err
	}

	body, err := c.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
			c.log.WithError(err).Debug("Page cache write failed")
		}
	}
	return body, nil
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	return parsed.Host, nil
}
