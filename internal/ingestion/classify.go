package ingestion

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quitanda/lossprev/internal/domain"
)

// Batch carries the caller-supplied context of one import run. PeriodoInicio
// and PeriodoFim are the range the file represents, which is distinct from
// when it was imported; both default to the import timestamp when zero.
type Batch struct {
	Tenant        string
	Lote          string
	PeriodoInicio time.Time
	PeriodoFim    time.Time
}

// ClassifyRows maps each decoded row to exactly one LossEvent. The mapping
// is 1:1 and does not deduplicate: importing the same file twice produces
// duplicate events. Returns the events alongside the loss/entry counters for
// the import summary.
func ClassifyRows(rows []Row, batch Batch, now time.Time) ([]domain.LossEvent, domain.ImportSummary) {
	inicio := batch.PeriodoInicio
	if inicio.IsZero() {
		inicio = now
	}
	fim := batch.PeriodoFim
	if fim.IsZero() {
		fim = now
	}

	events := make([]domain.LossEvent, 0, len(rows))
	summary := domain.ImportSummary{Lote: batch.Lote}

	for _, row := range rows {
		secao := Field(row, HeaderSecao)
		if secao == "" {
			secao = "0"
		}

		ev := domain.LossEvent{
			Tenant:        batch.Tenant,
			Barcode:       Field(row, HeaderBarcode),
			Descricao:     Field(row, HeaderDescricao),
			Quantidade:    parseDecimal(Field(row, HeaderQtd)),
			CustoUnitario: parseDecimal(Field(row, HeaderCusto)),
			Motivo:        Field(row, HeaderMotivo),
			SecaoCodigo:   secao,
			SecaoNome:     domain.SectionName(secao),
			ImportadoEm:   now,
			PeriodoInicio: inicio,
			PeriodoFim:    fim,
			Lote:          batch.Lote,
		}

		if ev.IsLoss() {
			summary.Perdas++
		} else {
			summary.Entradas++
		}
		summary.Total++
		events = append(events, ev)
	}

	return events, summary
}

// parseDecimal parses a vendor numeric cell. The export uses the Brazilian
// convention (comma decimal separator, dot for thousands); unparseable cells
// count as zero rather than failing the row.
func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
