package usecase

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
)

const UnnamedProduct = "Unnamed"

// Normalization defaults, applied field by field:
//
//	id        item_id, else id; a record without either is dropped
//	name      non-empty string, else "Unnamed"
//	image     string, else ""
//	price     finite number >= 0, else 0
//	quantity  number >= 1 (truncated), else 1
//	stock     finite number >= 0 (truncated), else 0
//
// Lines sharing an id are collapsed into the first one with summed quantities.
// Applying the defaults to an already normalized sequence changes nothing.

// NormalizeRemoteCart converts loosely shaped server records into cart lines.
func NormalizeRemoteCart(records []domain.RemoteCartRecord) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(records))
	for _, record := range records {
		id := stringField(record, "item_id")
		if id == "" {
			id = stringField(record, "id")
		}
		price, _ := numberField(record, "price")
		quantity, hasQuantity := numberField(record, "quantity")
		if !hasQuantity {
			quantity = 1
		}
		stock, _ := numberField(record, "stock")

		lines = append(lines, domain.CartLine{
			ID:       id,
			Name:     stringField(record, "name"),
			Image:    stringField(record, "image"),
			Price:    price,
			Quantity: truncate(quantity),
			Stock:    truncate(stock),
		})
	}
	return NormalizeLines(lines)
}

// NormalizeLines applies the default table to typed lines. The result is never nil.
func NormalizeLines(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.ID == "" {
			continue
		}
		line = normalizeLine(line)
		if at, seen := index[line.ID]; seen {
			out[at].Quantity += line.Quantity
			continue
		}
		index[line.ID] = len(out)
		out = append(out, line)
	}
	return out
}

func normalizeLine(line domain.CartLine) domain.CartLine {
	if line.Name == "" {
		line.Name = UnnamedProduct
	}
	if math.IsNaN(line.Price) || math.IsInf(line.Price, 0) || line.Price < 0 {
		line.Price = 0
	}
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	if line.Stock < 0 {
		line.Stock = 0
	}
	return line
}

// MergeItems translates guest lines into the records submitted to POST /cart/merge.
func MergeItems(lines []domain.CartLine) []domain.MergeItem {
	items := make([]domain.MergeItem, 0, len(lines))
	for _, line := range NormalizeLines(lines) {
		items = append(items, domain.MergeItem{ItemID: line.ID, Quantity: line.Quantity})
	}
	return items
}

func stringField(record domain.RemoteCartRecord, key string) string {
	switch v := record[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// numberField reports ok=false for absent, non-numeric or non-finite values.
func numberField(record domain.RemoteCartRecord, key string) (float64, bool) {
	var f float64
	switch v := record[key].(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func truncate(f float64) int {
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}
