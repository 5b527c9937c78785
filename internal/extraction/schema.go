package extraction

import "google.golang.org/genai"

// Prompt is sent alongside every receipt image.
const Prompt = "Extract receipt data and return JSON only. Use ISO-8601 date (YYYY-MM-DD). " +
	"Include items with description, quantity, unitPrice, totalPrice, " +
	"category(Housing, Utilities, Food, Transportation, Shopping, Health, " +
	"Entertainment, Subscriptions, Travel, Education)."

// DefaultMIMEType is assumed for images stored without a content type.
const DefaultMIMEType = "image/jpeg"

var (
	receiptFields = []string{"merchantName", "receiptDate", "currency", "category", "subtotal", "tax", "total"}
	itemFields    = []string{"description", "quantity", "unitPrice", "totalPrice"}
)

// ResponseSchema is the structured-output hint passed to the model. Every
// leaf is typed string; values are coerced after parsing.
var ResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: func() map[string]*genai.Schema {
		props := stringProperties(receiptFields)
		props["items"] = &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: stringProperties(itemFields),
			},
		}
		return props
	}(),
}

func stringProperties(names []string) map[string]*genai.Schema {
	props := make(map[string]*genai.Schema, len(names)+1)
	for _, name := range names {
		props[name] = &genai.Schema{Type: genai.TypeString}
	}
	return props
}
