package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// fetchWikipedia finds the best matching article and returns its summary.
func (c *Client) fetchWikipedia(ctx context.Context, term string) (providerAnswer, error) {
	req, err := c.request(ctx, c.wikipediaURL+"/w/api.php")
	if err != nil {
		return providerAnswer{}, err
	}
	var search wikiSearchResponse
	resp, err := req.
		SetQueryParams(map[string]string{
			"action":   "query",
			"list":     "search",
			"srsearch": term,
			"format":   "json",
			"utf8":     "1",
			"origin":   "*",
		}).
		SetResult(&search).
		Get(c.wikipediaURL + "/w/api.php")
	if err != nil {
		return providerAnswer{}, fmt.Errorf("wikipedia search: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return providerAnswer{}, err
	}
	if len(search.Query.Search) == 0 || search.Query.Search[0].Title == "" {
		return providerAnswer{}, nil
	}
	title := search.Query.Search[0].Title

	summaryURL := c.wikipediaURL + "/api/rest_v1/page/summary/{title}"
	req, err = c.request(ctx, summaryURL)
	if err != nil {
		return providerAnswer{}, err
	}
	var summary wikiSummaryResponse
	resp, err = req.
		SetPathParam("title", title).
		SetResult(&summary).
		Get(summaryURL)
	if err != nil {
		return providerAnswer{}, fmt.Errorf("wikipedia summary: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return providerAnswer{}, err
	}

	var parts []string
	for _, p := range []string{summary.Title, summary.Description, summary.Extract} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	source := &Source{Title: summary.Title, URL: summary.ContentURLs.Desktop.Page}
	if source.Title == "" {
		source.Title = title
	}
	if source.URL == "" {
		source.URL = c.wikipediaURL + "/wiki/" + url.PathEscape(title)
	}
	return providerAnswer{text: strings.Join(parts, "\n"), source: source}, nil
}

type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

// fetchDuckDuckGo returns the instant answer abstract, or the first usable related topic.
func (c *Client) fetchDuckDuckGo(ctx context.Context, term string) (providerAnswer, error) {
	endpoint := c.duckDuckGoURL + "/"
	req, err := c.request(ctx, endpoint)
	if err != nil {
		return providerAnswer{}, err
	}
	var answer ddgResponse
	resp, err := req.
		SetQueryParams(map[string]string{
			"q":           term,
			"format":      "json",
			"no_redirect": "1",
			"no_html":     "1",
		}).
		SetResult(&answer).
		Get(endpoint)
	if err != nil {
		return providerAnswer{}, fmt.Errorf("duckduckgo: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return providerAnswer{}, err
	}

	if answer.AbstractText != "" {
		a := providerAnswer{text: answer.AbstractText}
		if answer.AbstractURL != "" {
			title := answer.Heading
			if title == "" {
				title = "DuckDuckGo Abstract"
			}
			a.source = &Source{Title: title, URL: answer.AbstractURL}
		}
		return a, nil
	}

	for _, topic := range answer.RelatedTopics {
		if topic.Text != "" && topic.FirstURL != "" {
			return providerAnswer{
				text:   topic.Text,
				source: &Source{Title: clip(topic.Text, 60) + "…", URL: topic.FirstURL},
			}, nil
		}
	}
	return providerAnswer{}, nil
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
