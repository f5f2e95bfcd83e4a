package crawl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/dropscout/internal/models"
)

// Parser implements the Catalog Parser (C1): download, decompress, extract
// the embedded data object, and normalize to the canonical records
// (spec.md §4.6).
type Parser struct {
	httpClient *http.Client
	logger     arbor.ILogger
}

// NewParser builds a Parser with its own bounded-timeout HTTP client; the
// Catalog Parser's download step is independent of the Fetcher Client's
// submit timeout.
func NewParser(timeout time.Duration, logger arbor.ILogger) *Parser {
	return &Parser{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// download fetches the payload and returns its body alongside the raw
// Content-Encoding header (empty if absent).
func (p *Parser) download(ctx context.Context, payloadURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payloadURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("download payload: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read payload body: %w", err)
	}
	return body, resp.Header.Get("Content-Encoding"), nil
}

// ParseProduct downloads and normalizes a product-detail payload into a
// CanonicalProduct.
func (p *Parser) ParseProduct(ctx context.Context, payloadURL string) (*models.CanonicalProduct, error) {
	html, err := p.fetchDecoded(ctx, payloadURL)
	if err != nil {
		return nil, err
	}

	rawJSON, err := extractAnchoredJSON(html, anchorProductDetail)
	if err != nil {
		return nil, err
	}

	var raw rawProductDetail
	if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseSyntax, err)
	}

	product := raw.normalize()
	if err := validateProductComplete(product); err != nil {
		p.logger.Warn().Str("url", payloadURL).Str("product_id", product.SourceProductID).
			Msg("Product payload missing required fields")
		return nil, err
	}
	return product, nil
}

// ParseSearchPage downloads and normalizes a search or pagination payload.
// Discovered links are recovered two ways: from the embedded JSON's
// results container when present, and defensively from the rendered
// anchor tags in the surrounding HTML (the fetcher's catalog sometimes
// renders pagination controls outside the embedded object).
func (p *Parser) ParseSearchPage(ctx context.Context, payloadURL string) (*models.SearchPageResult, error) {
	html, err := p.fetchDecoded(ctx, payloadURL)
	if err != nil {
		return nil, err
	}

	result := &models.SearchPageResult{}

	if rawJSON, jerr := extractAnchoredJSON(html, anchorSearchResults); jerr == nil {
		var raw rawSearchResults
		if err := json.Unmarshal([]byte(rawJSON), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParseSyntax, err)
		}
		result.ProductURLs = append(result.ProductURLs, raw.ProductURLs...)
		result.PaginationURLs = append(result.PaginationURLs, raw.PaginationURLs...)
	} else if jerr != ErrParseShape {
		return nil, jerr
	}

	discovered, derr := discoverLinksFromHTML(html, payloadURL)
	if derr != nil {
		p.logger.Debug().Err(derr).Str("url", payloadURL).Msg("Anchor-tag link discovery failed, continuing with embedded JSON only")
	} else {
		result.ProductURLs = dedupeStrings(append(result.ProductURLs, discovered.ProductURLs...))
		result.PaginationURLs = dedupeStrings(append(result.PaginationURLs, discovered.PaginationURLs...))
	}

	if len(result.ProductURLs) == 0 && len(result.PaginationURLs) == 0 {
		return nil, ErrParseShape
	}
	return result, nil
}

func (p *Parser) fetchDecoded(ctx context.Context, payloadURL string) (string, error) {
	body, encoding, err := p.download(ctx, payloadURL)
	if err != nil {
		return "", err
	}
	decoded, err := decompressPayload(body, encoding)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseSyntax, err)
	}
	return string(decoded), nil
}

// discoverLinksFromHTML walks <a> tags classified by a couple of common
// catalog conventions: product-detail links carry "/product/" or
// "/item/" in their path, pagination links carry a "page" query param or
// rel="next".
func discoverLinksFromHTML(html, baseURL string) (*models.SearchPageResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html for link discovery: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	result := &models.SearchPageResult{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		abs := resolved.String()

		rel, _ := sel.Attr("rel")
		switch {
		case rel == "next", resolved.Query().Has("page"):
			result.PaginationURLs = append(result.PaginationURLs, abs)
		case strings.Contains(resolved.Path, "/product/"), strings.Contains(resolved.Path, "/item/"):
			result.ProductURLs = append(result.ProductURLs, abs)
		}
	})
	return result, nil
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// validateProductComplete enforces the ParseIncomplete failure mode:
// missing id, name, or at least one sell price (spec.md §4.6).
func validateProductComplete(product *models.CanonicalProduct) error {
	var missing []string
	if product.SourceProductID == "" {
		missing = append(missing, "id")
	}
	if product.DisplayName == "" {
		missing = append(missing, "name")
	}
	if product.MinSellPrice <= 0 && product.MaxSellPrice <= 0 {
		missing = append(missing, "sell_price")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrParseIncomplete, strings.Join(missing, ", "))
	}
	return nil
}
