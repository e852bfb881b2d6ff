package pubmed

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/litscreen/internal/model"
)

// ResultsPerPage is the number of articles on one search result page
const ResultsPerPage = 10

// Link is one article found on a search result page
type Link struct {
	PMID string
	Href string
}

var leadingYear = regexp.MustCompile(`^\d{4}`)

// ParseResultCount reads the total hit count from a search page. A page
// without a count has no results.
func ParseResultCount(r io.Reader) (int, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return 0, fmt.Errorf("parse search page: %w", err)
	}

	amount := findFirst(doc, func(n *html.Node) bool { return hasClass(n, "results-amount") })
	if amount == nil {
		return 0, nil
	}
	span := findFirst(amount, func(n *html.Node) bool { return isElement(n, "span") })
	if span == nil {
		return 0, nil
	}

	raw := strings.NewReplacer("\n", "", ",", "").Replace(strings.TrimSpace(text(span)))
	if raw == "" {
		return 0, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("result count %q: %w", raw, err)
	}
	return count, nil
}

// PageCount returns the number of result pages for count hits
func PageCount(count int) int {
	return (count + ResultsPerPage - 1) / ResultsPerPage
}

// ParseSearchPage returns the article links on a search result page. Links
// without an article ID or href are skipped.
func ParseSearchPage(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var links []Link
	for _, content := range findAll(doc, func(n *html.Node) bool { return hasClass(n, "docsum-content") }) {
		for _, a := range children(content, func(n *html.Node) bool { return isElement(n, "a") }) {
			pmid := strings.TrimSpace(attr(a, "data-article-id"))
			href := attr(a, "href")
			if pmid == "" || href == "" {
				continue
			}
			links = append(links, Link{PMID: pmid, Href: href})
		}
	}
	return links, nil
}

// ParseArticle extracts an article page. It reports false when the page has
// no abstract; such articles are not kept. Other missing fields are Missing.
func ParseArticle(r io.Reader, pmid, link string) (model.Article, bool, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return model.Article{}, false, fmt.Errorf("parse article %s: %w", pmid, err)
	}

	art := model.Article{
		PMID:     pmid,
		Title:    model.Missing,
		Keywords: model.Missing,
		Year:     model.Missing,
		Link:     link,
		DOI:      model.Missing,
	}

	heading := findFirst(doc, func(n *html.Node) bool { return hasID(n, "full-view-heading") })
	if h1 := children(heading, func(n *html.Node) bool { return isElement(n, "h1") }); len(h1) > 0 {
		art.Title = strings.TrimSpace(text(h1[0]))
	}

	abstract := findFirst(doc, func(n *html.Node) bool { return hasID(n, "eng-abstract") })
	paragraphs := children(abstract, func(n *html.Node) bool { return isElement(n, "p") })
	switch len(paragraphs) {
	case 0:
		return art, false, nil
	case 1:
		art.Abstract = strings.TrimSpace(text(paragraphs[0]))
	default:
		parts := make([]string, len(paragraphs))
		for i, p := range paragraphs {
			parts[i] = collapse(text(p))
		}
		art.Abstract = strings.Join(parts, " ")
	}

	if section := findFirst(doc, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "abstract") }); section != nil {
		strong := findFirst(section, func(n *html.Node) bool {
			return isElement(n, "strong") && hasClass(n, "sub-title") && strings.Contains(text(n), "Keywords")
		})
		if strong != nil && strong.Parent != nil {
			art.Keywords = collapse(text(strong.Parent))
		}
	}

	cit := findFirst(heading, func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, "cit") })
	if cit != nil {
		if year := leadingYear.FindString(strings.TrimSpace(text(cit))); year != "" {
			art.Year = year
		}
	}

	doi := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "span") && hasClass(n, "identifier") && hasClass(n, "doi")
	})
	if a := findFirst(doi, func(n *html.Node) bool { return isElement(n, "a") && hasClass(n, "id-link") }); a != nil {
		art.DOI = strings.TrimSpace(text(a))
	}

	return art, true, nil
}
