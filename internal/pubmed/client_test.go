package pubmed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ppiankov/litscreen/internal/cache"
	"github.com/ppiankov/litscreen/internal/model"
)

type pubmedServer struct {
	*httptest.Server
	articleHits atomic.Int32
	searches    atomic.Int32
}

// newPubmedServer serves two result pages. Page 1 links 111 (full) and 222
// (no abstract), page 2 links 333 (broken).
func newPubmedServer(t *testing.T, robots string) *pubmedServer {
	t.Helper()
	s := &pubmedServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, robots)
	})
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, r *http.Request) {
		s.searches.Add(1)
		if r.URL.Query().Get("term") != "nipah virus" {
			t.Errorf("term = %q", r.URL.Query().Get("term"))
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			_, _ = fmt.Fprint(w, `<div class="results-amount"><span>15</span></div>
<article><div class="docsum-content"><a href="/111/" data-article-id="111">A</a></div></article>
<article><div class="docsum-content"><a href="/222/" data-article-id="222">B</a></div></article>`)
		case "2":
			_, _ = fmt.Fprint(w, `<div class="results-amount"><span>15</span></div>
<article><div class="docsum-content"><a href="/333/" data-article-id="333">C</a></div></article>`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	})
	mux.HandleFunc("/111/", func(w http.ResponseWriter, r *http.Request) {
		s.articleHits.Add(1)
		_, _ = fmt.Fprint(w, articleHTML)
	})
	mux.HandleFunc("/222/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `<div id="full-view-heading"><h1>No abstract</h1></div>`)
	})
	mux.HandleFunc("/333/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func testScrapeConfig(baseURL string) model.ScrapeConfig {
	return model.ScrapeConfig{
		BaseURL:       baseURL,
		UserAgent:     "litscreen-test/1.0",
		Timeout:       5 * time.Second,
		MaxBodyBytes:  1 << 20,
		RespectRobots: true,
	}
}

func TestClient_Scrape(t *testing.T) {
	noSleep(t)
	srv := newPubmedServer(t, "")
	log, _ := logtest.NewNullLogger()
	client := NewClient(testScrapeConfig(srv.URL), nil, time.Minute, log)

	articles, err := client.Scrape(context.Background(), "nipah virus", 1, 100)
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1: %+v", len(articles), articles)
	}
	art := articles[0]
	if art.PMID != "111" || art.Link != srv.URL+"/111/" || art.Year != "2020" {
		t.Errorf("unexpected article: %+v", art)
	}
	// count page plus pages 1 and 2
	if got := srv.searches.Load(); got != 3 {
		t.Errorf("search requests = %d, want 3", got)
	}
}

func TestClient_ScrapeStopsAtEnd(t *testing.T) {
	srv := newPubmedServer(t, "")
	log, _ := logtest.NewNullLogger()
	client := NewClient(testScrapeConfig(srv.URL), nil, time.Minute, log)

	articles, err := client.Scrape(context.Background(), "nipah virus", 0, 1)
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("got %d articles, want 1", len(articles))
	}
	if got := srv.searches.Load(); got != 2 {
		t.Errorf("search requests = %d, want 2", got)
	}
}

func TestClient_ArticleCached(t *testing.T) {
	srv := newPubmedServer(t, "")
	log, _ := logtest.NewNullLogger()
	client := NewClient(testScrapeConfig(srv.URL), cache.NewMemoryCache(time.Minute, time.Minute), time.Minute, log)

	for i := 0; i < 2; i++ {
		art, ok, err := client.Article(context.Background(), Link{PMID: "111", Href: "/111/"})
		if err != nil || !ok {
			t.Fatalf("Article() = (%v, %v)", ok, err)
		}
		if art.Title != "Nipah virus in fruit bats" {
			t.Errorf("Title = %q", art.Title)
		}
	}
	if got := srv.articleHits.Load(); got != 1 {
		t.Errorf("article fetched %d times, want 1", got)
	}
}

func TestClient_RobotsDisallow(t *testing.T) {
	srv := newPubmedServer(t, "User-agent: *\nDisallow: /111/\n")
	log, _ := logtest.NewNullLogger()
	client := NewClient(testScrapeConfig(srv.URL), nil, time.Minute, log)

	_, _, err := client.Article(context.Background(), Link{PMID: "111", Href: "/111/"})
	if !errors.Is(err, ErrDisallowed) {
		t.Fatalf("expected ErrDisallowed, got %v", err)
	}
	if srv.articleHits.Load() != 0 {
		t.Error("disallowed page was fetched")
	}

	cfg := testScrapeConfig(srv.URL)
	cfg.RespectRobots = false
	client = NewClient(cfg, nil, time.Minute, log)
	if _, _, err := client.Article(context.Background(), Link{PMID: "111", Href: "/111/"}); err != nil {
		t.Fatalf("Article() with robots ignored: %v", err)
	}
}

func TestClient_SearchURL(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	client := NewClient(model.ScrapeConfig{BaseURL: "https://pubmed.test/"}, nil, 0, log)

	if got := client.SearchURL("nipah virus", 0); got != "https://pubmed.test/?term=nipah+virus" {
		t.Errorf("SearchURL(0) = %q", got)
	}
	if got := client.SearchURL("nipah", 3); got != "https://pubmed.test/?page=3&term=nipah" {
		t.Errorf("SearchURL(3) = %q", got)
	}
}
