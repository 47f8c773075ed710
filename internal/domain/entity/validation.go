package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs.
const maxURLLength = 2048

// ValidateURL validates the format of a feed or article URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("malformed URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateArticle checks the invariants every stored article must satisfy:
// non-empty title, link and source.
func ValidateArticle(a *Article) error {
	if a == nil {
		return &ValidationError{Field: "article", Message: "article is nil"}
	}
	if strings.TrimSpace(a.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(a.Link) == "" {
		return &ValidationError{Field: "link", Message: "link is required"}
	}
	if strings.TrimSpace(a.Source) == "" {
		return &ValidationError{Field: "source", Message: "source is required"}
	}
	return nil
}

// ValidateArticles checks every article of a batch and reports the first
// one that breaks an invariant.
func ValidateArticles(articles []*Article) error {
	for i, a := range articles {
		if err := ValidateArticle(a); err != nil {
			return fmt.Errorf("article %d: %w", i, err)
		}
	}
	return nil
}
