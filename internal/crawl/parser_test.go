package crawl

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func newTestParser() *Parser {
	return NewParser(2*time.Second, arbor.NewLogger())
}

func TestParser_ParseProduct_HappyPath(t *testing.T) {
	html := `<html><body><script>
		productDetailData={"productId":"8839201","name":"Garden Hose","sku":"GH-000",
		"supplierId":"sup-1","warehouseCountries":["US"],"categoryPath":["garden"],
		"variants":[{"sku":"GH-50","sellPrice":19.99,"suggestedRetailPrice":29.99,"weight":1.2,"packWeight":1.5}]};
	</script></body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	p := newTestParser()
	product, err := p.ParseProduct(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.SourceProductID != "8839201" || product.DisplayName != "Garden Hose" {
		t.Errorf("unexpected product: %+v", product)
	}
	if product.MinSellPrice != 19.99 {
		t.Errorf("got min sell price %v, want 19.99", product.MinSellPrice)
	}
}

func TestParser_ParseProduct_BlockPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Please verify you are human</body></html>`))
	}))
	defer server.Close()

	p := newTestParser()
	_, err := p.ParseProduct(t.Context(), server.URL)
	if !errors.Is(err, ErrParseShape) {
		t.Fatalf("expected ErrParseShape, got %v", err)
	}
}

func TestParser_ParseProduct_IncompleteFields(t *testing.T) {
	html := `productDetailData={"productId":"8839201"};`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	p := newTestParser()
	_, err := p.ParseProduct(t.Context(), server.URL)
	if !errors.Is(err, ErrParseIncomplete) {
		t.Fatalf("expected ErrParseIncomplete, got %v", err)
	}
}

func TestParser_ParseSearchPage_EmbeddedAndAnchorLinks(t *testing.T) {
	html := `<html><body>
		<script>searchResultsData={"productUrls":["https://catalog.example/product/111"],"paginationUrls":[]};</script>
		<a href="/product/222">item</a>
		<a href="/search?keyword=x&page=2" rel="next">next page</a>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	p := newTestParser()
	result, err := p.ParseSearchPage(t.Context(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ProductURLs) != 2 {
		t.Errorf("got %d product urls, want 2: %v", len(result.ProductURLs), result.ProductURLs)
	}
	if len(result.PaginationURLs) != 1 {
		t.Errorf("got %d pagination urls, want 1: %v", len(result.PaginationURLs), result.PaginationURLs)
	}
}

func TestParser_ParseSearchPage_NoDiscoverableLinksIsShapeError(t *testing.T) {
	html := `<html><body>no anchors, no embedded json here</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	p := newTestParser()
	_, err := p.ParseSearchPage(t.Context(), server.URL)
	if !errors.Is(err, ErrParseShape) {
		t.Fatalf("expected ErrParseShape, got %v", err)
	}
}

func TestDedupeStrings(t *testing.T) {
	in := []string{"a", "b", "a", "c", "b"}
	out := dedupeStrings(in)
	if len(out) != 3 {
		t.Fatalf("got %d, want 3: %v", len(out), out)
	}
}
