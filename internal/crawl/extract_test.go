package crawl

import (
	"errors"
	"testing"
)

func TestExtractAnchoredJSON_ProductDetail(t *testing.T) {
	html := `<html><body><script>window.__DATA__={"foo":1};productDetailData={"id":"8839201","name":"Widget"};</script></body></html>`

	raw, err := extractAnchoredJSON(html, anchorProductDetail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"8839201","name":"Widget"}`
	if raw != want {
		t.Errorf("got %q, want %q", raw, want)
	}
}

func TestExtractAnchoredJSON_NestedBraces(t *testing.T) {
	html := `productDetailData={"id":"1","variants":[{"sku":"a"},{"sku":"b"}],"meta":{"nested":{"deep":true}}};`

	raw, err := extractAnchoredJSON(html, anchorProductDetail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"1","variants":[{"sku":"a"},{"sku":"b"}],"meta":{"nested":{"deep":true}}}`
	if raw != want {
		t.Errorf("got %q, want %q", raw, want)
	}
}

func TestExtractAnchoredJSON_BraceInsideString(t *testing.T) {
	html := `productDetailData={"id":"1","name":"Brace } inside \"quotes\" here"};`

	raw, err := extractAnchoredJSON(html, anchorProductDetail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"1","name":"Brace } inside \"quotes\" here"}`
	if raw != want {
		t.Errorf("got %q, want %q", raw, want)
	}
}

func TestExtractAnchoredJSON_AnchorMissing(t *testing.T) {
	html := `<html><body>this is a block page with no embedded data</body></html>`

	_, err := extractAnchoredJSON(html, anchorProductDetail)
	if !errors.Is(err, ErrParseShape) {
		t.Fatalf("expected ErrParseShape, got %v", err)
	}
}

func TestExtractAnchoredJSON_NoOpeningBrace(t *testing.T) {
	html := `productDetailData=undefined;`

	_, err := extractAnchoredJSON(html, anchorProductDetail)
	if !errors.Is(err, ErrParseShape) {
		t.Fatalf("expected ErrParseShape, got %v", err)
	}
}

func TestExtractAnchoredJSON_Unbalanced(t *testing.T) {
	html := `productDetailData={"id":"1","name":"Widget";`

	_, err := extractAnchoredJSON(html, anchorProductDetail)
	if !errors.Is(err, ErrParseSyntax) {
		t.Fatalf("expected ErrParseSyntax, got %v", err)
	}
}

func TestExtractAnchoredJSON_SubstitutesUndefined(t *testing.T) {
	html := `productDetailData={"id":"1","inventoryCount":undefined,"name":"has undefined in string literal, not a token"};`

	raw, err := extractAnchoredJSON(html, anchorProductDetail)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":"1","inventoryCount":null,"name":"has undefined in string literal, not a token"}`
	if raw != want {
		t.Errorf("got %q, want %q", raw, want)
	}
}

func TestSubstituteUndefinedWithNull_IgnoresWithinStrings(t *testing.T) {
	in := `{"note":"undefined behavior","count":undefined,"word":"predefinedValue"}`
	got := substituteUndefinedWithNull(in)
	want := `{"note":"undefined behavior","count":null,"word":"predefinedValue"}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSubstituteUndefinedWithNull_DoesNotMatchSubstring(t *testing.T) {
	// "undefinedXYZ" is a distinct identifier, not the bare token.
	in := `{"a":undefinedXYZ,"b":undefined}`
	got := substituteUndefinedWithNull(in)
	want := `{"a":undefinedXYZ,"b":null}`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
