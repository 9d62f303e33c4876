package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// RawListing is a listing as it was extracted off a retailer page, before any
// normalization.
type RawListing struct {
	Name      string
	PriceText string
	URL       string
	StockText string
	Retailer  Retailer
}

// Candidate is a normalized listing that has not been validated yet.
type Candidate struct {
	Name     string
	Price    decimal.Decimal
	URL      string
	Retailer Retailer
	Category Category
	InStock  bool
}

// ValidatedItem is a candidate that went through the link validator.
type ValidatedItem struct {
	Candidate
	Validated bool
}

type itemJSON struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	URL   string      `json:"url"`
	Store string      `json:"store"`
	Type  string      `json:"type"`
}

func (v ValidatedItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(itemJSON{
		Name:  v.Name,
		Price: json.Number(v.Price.StringFixed(2)),
		URL:   v.URL,
		Store: v.Retailer.StoreName(),
		Type:  v.Category.Text(),
	})
}

func (v *ValidatedItem) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}
	price, err := decimal.NewFromString(raw.Price.String())
	if err != nil {
		return fmt.Errorf("parse price: %w", err)
	}
	retailer, err := ParseRetailer(raw.Store)
	if err != nil {
		return err
	}
	category, err := ParseCategory(raw.Type)
	if err != nil {
		return err
	}
	*v = ValidatedItem{
		Candidate: Candidate{
			Name:     raw.Name,
			Price:    price,
			URL:      raw.URL,
			Retailer: retailer,
			Category: category,
			InStock:  true,
		},
		Validated: true,
	}
	return nil
}
