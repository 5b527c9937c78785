package extraction

import (
	"encoding/json"
	"errors"
	"testing"

	"ai-receipt/internal/apperr"

	"google.golang.org/genai"
)

// wrap builds a generateContent envelope around text.
func wrap(t *testing.T, text string) string {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestParseResponse(t *testing.T) {
	body := wrap(t, "Sure! Here is the data:\n```json\n"+
		`{"merchantName":"Cafe","receiptDate":"2024-03-05","total":"$12.50",`+
		`"items":[{"description":"Latte","quantity":"1","unitPrice":"4.50","totalPrice":"4.50"},null]}`+
		"\n```\nLet me know {if} you need more.")

	ex, err := ParseResponse(body)
	if err == nil {
		t.Fatalf("ParseResponse() = %+v, want decode error for trailing brace prose", ex)
	}
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("error = %v, want validation", err)
	}

	body = wrap(t, "Sure! Here is the data:\n```json\n"+
		`{"merchantName":"Cafe","receiptDate":"2024-03-05","total":"$12.50",`+
		`"items":[{"description":"Latte","quantity":"1","unitPrice":"4.50","totalPrice":"4.50"},null]}`+
		"\n```")

	ex, err = ParseResponse(body)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if got := ex.MerchantName.Ptr(); got == nil || *got != "Cafe" {
		t.Errorf("MerchantName = %v", got)
	}
	if got := ex.Total.Ptr(); got == nil || *got != "$12.50" {
		t.Errorf("Total = %v", got)
	}
	if len(ex.Items) != 2 || ex.Items[1] != nil {
		t.Fatalf("Items = %+v", ex.Items)
	}
	if ex.Currency.Ptr() != nil {
		t.Error("absent currency should be nil")
	}
}

func TestParseResponseLooseScalars(t *testing.T) {
	ex, err := ParseResponse(wrap(t, `{"total": 12.5, "tax": null, "merchantName": true, "items": [{"quantity": 2}]}`))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if got := ex.Total.Ptr(); got == nil || *got != "12.5" {
		t.Errorf("Total = %v, want literal 12.5", got)
	}
	if ex.Tax.Ptr() != nil {
		t.Error("null tax should be absent")
	}
	if got := ex.MerchantName.Ptr(); got == nil || *got != "true" {
		t.Errorf("MerchantName = %v", got)
	}
	if got := ex.Items[0].Quantity.Ptr(); got == nil || *got != "2" {
		t.Errorf("Quantity = %v", got)
	}
}

func TestParseResponseNullPayload(t *testing.T) {
	ex, err := ParseResponse(wrap(t, "null"))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if ex != nil {
		t.Errorf("ParseResponse() = %+v, want nil extraction", ex)
	}
}

func TestParseResponseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind error
		msg  string
	}{
		{"empty body", "  ", apperr.ErrUpstream, "empty response"},
		{"not json", "<html>oops</html>", apperr.ErrUpstream, "malformed response envelope"},
		{"no candidates", `{"candidates":[]}`, apperr.ErrUpstream, "no text in response"},
		{"no parts", `{"candidates":[{"content":{"parts":[]}}]}`, apperr.ErrUpstream, "no text in response"},
		{"no text field", `{"candidates":[{"content":{"parts":[{"inline_data":{}}]}}]}`, apperr.ErrUpstream, "no text in response"},
		{"prose only", wrap(t, "I cannot read this receipt."), apperr.ErrValidation, "failed to decode extraction"},
		{"blank text", wrap(t, "   "), apperr.ErrValidation, "failed to decode extraction"},
		{"object as field", wrap(t, `{"total":{"amount":"1"}}`), apperr.ErrValidation, "failed to decode extraction"},
		{"array payload", wrap(t, `[1,2]`), apperr.ErrValidation, "failed to decode extraction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(tt.body)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("error = %v, want kind %v", err, tt.kind)
			}
			if got := apperr.Message(err, ""); got != tt.msg {
				t.Errorf("message = %q, want %q", got, tt.msg)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"prefix {\"a\":{\"b\":2}} suffix", `{"a":{"b":2}}`},
		{"  no braces  ", "no braces"},
		{"} backwards {", "} backwards {"},
		{"only { open", "only { open"},
	}
	for _, tt := range tests {
		if got := ExtractJSON(tt.in); got != tt.want {
			t.Errorf("ExtractJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResponseSchemaLeavesAreStrings(t *testing.T) {
	props := ResponseSchema.Properties
	for _, name := range receiptFields {
		if props[name] == nil || props[name].Type != genai.TypeString {
			t.Errorf("%s is not typed string", name)
		}
	}
	items := props["items"]
	if items == nil || items.Type != genai.TypeArray {
		t.Fatalf("items = %+v", items)
	}
	if items.Items == nil || items.Items.Type != genai.TypeObject {
		t.Fatalf("items.items = %+v", items.Items)
	}
	for _, name := range itemFields {
		leaf := items.Items.Properties[name]
		if leaf == nil || leaf.Type != genai.TypeString {
			t.Errorf("item %s is not typed string", name)
		}
	}
}
