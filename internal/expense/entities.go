package expense

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"playground/pkg/models"
)

// dateLayouts are tried in order when an entity carries no normalised date.
var dateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"20060102",
	"2006. 1. 2.",
	"2006. 1. 2",
	"2006년 1월 2일",
	"06.01.02",
	"06-01-02",
	"02.01.2006",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// metadataFromDocument maps expense parser entities to transfer metadata.
func (e *Extractor) metadataFromDocument(doc *documentaipb.Document) (models.TransferMetadata, map[string]float32) {
	var meta models.TransferMetadata
	confidence := make(map[string]float32)

	for _, entity := range doc.GetEntities() {
		entityType := entity.GetType()
		value := strings.TrimSpace(entity.GetMentionText())
		if _, seen := confidence[entityType]; !seen {
			confidence[entityType] = entity.GetConfidence()
		}

		e.log.Debug().
			Str("entity_type", entityType).
			Str("value", value).
			Float32("confidence", entity.GetConfidence()).
			Msg("Processing Document AI entity")

		switch entityType {
		case "total_amount":
			if meta.Amount != "" {
				continue
			}
			if amount, err := extractAmount(entity); err == nil {
				meta.Amount = amount
			} else {
				e.log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract total amount")
			}
		case "receipt_date", "invoice_date", "purchase_date":
			if meta.Date != "" {
				continue
			}
			if date, err := extractDate(entity); err == nil {
				meta.Date = date
			} else {
				e.log.Warn().Err(err).Str("raw_value", value).Msg("Failed to extract date")
			}
		case "supplier_name":
			if meta.Seller == "" {
				meta.Seller = value
			}
		case "line_item":
			if meta.Item == "" {
				meta.Item = lineItemDescription(entity)
			}
		}
	}

	return meta, confidence
}

// extractAmount returns the amount in whole currency units.
func extractAmount(entity *documentaipb.Document_Entity) (string, error) {
	if money := entity.GetNormalizedValue().GetMoneyValue(); money != nil {
		return strconv.FormatInt(money.GetUnits(), 10), nil
	}
	return parseWholeUnits(entity.GetMentionText())
}

// parseWholeUnits parses a printed amount such as "12,200원", "7.303,08 €" or
// "$12.50" and returns the integer part.
func parseWholeUnits(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.Trim(b.String(), ".,")
	if cleaned == "" {
		return "", fmt.Errorf("no digits in amount %q", s)
	}

	// A final separator followed by one or two digits is a decimal separator.
	if i := strings.LastIndexAny(cleaned, ".,"); i >= 0 && len(cleaned)-i-1 <= 2 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.NewReplacer(".", "", ",", "").Replace(cleaned)

	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return "", fmt.Errorf("unable to parse amount %q: %w", s, err)
	}
	return strconv.FormatInt(n, 10), nil
}

// extractDate returns the date as YYYYMMDD.
func extractDate(entity *documentaipb.Document_Entity) (string, error) {
	if d := entity.GetNormalizedValue().GetDateValue(); d != nil && d.GetYear() > 0 {
		return fmt.Sprintf("%04d%02d%02d", d.GetYear(), d.GetMonth(), d.GetDay()), nil
	}
	return parseDate(entity.GetMentionText())
}

func parseDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date value")
	}
	// Receipts often print a time after the date.
	candidates := []string{s}
	if fields := strings.Fields(s); len(fields) > 1 {
		candidates = append(candidates, fields[0])
	}
	for _, c := range candidates {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.Format("20060102"), nil
			}
		}
	}
	return "", fmt.Errorf("unable to parse date: %s", s)
}

// lineItemDescription prefers the description property of a line item.
func lineItemDescription(entity *documentaipb.Document_Entity) string {
	for _, prop := range entity.GetProperties() {
		if prop.GetType() == "line_item/description" {
			if v := strings.TrimSpace(prop.GetMentionText()); v != "" {
				return v
			}
		}
	}
	return strings.TrimSpace(entity.GetMentionText())
}

// baseMimeType strips parameters such as "; charset=binary".
func baseMimeType(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
