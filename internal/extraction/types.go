package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Extraction is the loosely-typed record the model returns for one receipt.
type Extraction struct {
	MerchantName Field             `json:"merchantName"`
	ReceiptDate  Field             `json:"receiptDate"`
	Currency     Field             `json:"currency"`
	Category     Field             `json:"category"`
	Subtotal     Field             `json:"subtotal"`
	Tax          Field             `json:"tax"`
	Total        Field             `json:"total"`
	Items        []*ItemExtraction `json:"items"`
}

type ItemExtraction struct {
	Description Field `json:"description"`
	Quantity    Field `json:"quantity"`
	UnitPrice   Field `json:"unitPrice"`
	TotalPrice  Field `json:"totalPrice"`
}

// Field is a scalar the model may send as a string, number or boolean even
// though the schema asks for strings. Numbers and booleans keep their
// literal text; null leaves the field absent.
type Field struct {
	value *string
}

func NewField(s string) Field {
	return Field{value: &s}
}

// Ptr returns the raw text, or nil when absent.
func (f Field) Ptr() *string {
	return f.value
}

func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.value = nil
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f.value = &s
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", data[:1])
	default:
		s := string(data)
		f.value = &s
	}
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if f.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*f.value)
}
