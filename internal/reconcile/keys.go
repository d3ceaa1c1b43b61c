// Package reconcile joins per-product loss figures across two systems that
// identify products inconsistently: the ERP by internal sequential code, the
// vendor exports by barcode, both with unreliable zero padding.
package reconcile

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// padWidths are the fixed-width code formats emitted by the legacy reports.
// A stripped code is re-padded to each of these so that a caller holding any
// of the widths finds the same entry.
var padWidths = []int{5, 6, 7, 8, 10, 12, 13, 14}

// CandidateKeys generates the normalized key set for one (internal code,
// barcode) pair: both identifiers as received, their zero-stripped forms, the
// integer re-parse of the stripped code, and the stripped code re-padded to
// every legacy width. The result is deduplicated, in generation order.
func CandidateKeys(codigo, barcode string) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	if codigo != "" {
		add(codigo)

		stripped := strings.TrimLeft(codigo, "0")
		if stripped == "" {
			stripped = codigo
		}
		add(stripped)

		if n, err := strconv.ParseInt(stripped, 10, 64); err == nil {
			add(strconv.FormatInt(n, 10))
		}

		for _, w := range padWidths {
			if len(stripped) <= w {
				add(strings.Repeat("0", w-len(stripped)) + stripped)
			}
		}
	}

	if barcode != "" {
		add(barcode)
		stripped := strings.TrimLeft(barcode, "0")
		if stripped == "" {
			stripped = barcode
		}
		add(stripped)
	}

	return keys
}

// ProductMonthly accumulates the loss value and quantity of a product for
// the current and previous month.
type ProductMonthly struct {
	MesAnterior    decimal.Decimal `json:"mesAnterior"`
	MesAtual       decimal.Decimal `json:"mesAtual"`
	QtdMesAnterior decimal.Decimal `json:"qtdMesAnterior"`
	QtdMesAtual    decimal.Decimal `json:"qtdMesAtual"`
}

// Index maps every generated key variant to its accumulated monthly totals.
// Insertion is additive: multiple rows can legitimately land on overlapping
// keys and their amounts merge. Two distinct products colliding on a padding
// variant therefore also merge; that approximation is accepted and must not
// be silently "fixed" into a unique join.
//
// An Index is rebuilt for every reconciliation request and never reused
// across requests.
type Index map[string]*ProductMonthly

// AddCurrent accumulates a current-month figure under every key variant of
// the (codigo, barcode) pair.
func (idx Index) AddCurrent(codigo, barcode string, valor, qtd decimal.Decimal) {
	for _, key := range CandidateKeys(codigo, barcode) {
		e := idx.entry(key)
		e.MesAtual = e.MesAtual.Add(valor)
		e.QtdMesAtual = e.QtdMesAtual.Add(qtd)
	}
}

// AddPrevious accumulates a previous-month figure under every key variant of
// the (codigo, barcode) pair.
func (idx Index) AddPrevious(codigo, barcode string, valor, qtd decimal.Decimal) {
	for _, key := range CandidateKeys(codigo, barcode) {
		e := idx.entry(key)
		e.MesAnterior = e.MesAnterior.Add(valor)
		e.QtdMesAnterior = e.QtdMesAnterior.Add(qtd)
	}
}

// Lookup returns the accumulated totals for any key variant. Unknown keys
// return zero totals, not an error.
func (idx Index) Lookup(key string) (ProductMonthly, bool) {
	if e, ok := idx[key]; ok {
		return *e, true
	}
	return ProductMonthly{
		MesAnterior:    decimal.Zero,
		MesAtual:       decimal.Zero,
		QtdMesAnterior: decimal.Zero,
		QtdMesAtual:    decimal.Zero,
	}, false
}

func (idx Index) entry(key string) *ProductMonthly {
	e, ok := idx[key]
	if !ok {
		e = &ProductMonthly{
			MesAnterior:    decimal.Zero,
			MesAtual:       decimal.Zero,
			QtdMesAnterior: decimal.Zero,
			QtdMesAtual:    decimal.Zero,
		}
		idx[key] = e
	}
	return e
}
