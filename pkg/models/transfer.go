package models

// TransferMetadata describes a receipt forwarded by the storage relay. The
// values are passed through as opaque strings.
type TransferMetadata struct {
	Amount string // Total amount in whole currency units, e.g. "12200"
	Date   string // Purchase date as YYYYMMDD
	Seller string // Merchant name
	Item   string // Purchased item description
}

// Missing reports whether any field is empty.
func (m TransferMetadata) Missing() bool {
	return m.Amount == "" || m.Date == "" || m.Seller == "" || m.Item == ""
}

// FillFrom copies each non-empty field of other into the corresponding empty
// field of m and returns the names of the fields it filled.
func (m *TransferMetadata) FillFrom(other TransferMetadata) []string {
	var filled []string
	fill := func(name string, dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			filled = append(filled, name)
		}
	}
	fill("amount", &m.Amount, other.Amount)
	fill("date", &m.Date, other.Date)
	fill("seller", &m.Seller, other.Seller)
	fill("item", &m.Item, other.Item)
	return filled
}
