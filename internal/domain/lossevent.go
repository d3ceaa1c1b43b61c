package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LossEvent is one row of an inventory-adjustment import. The sign of
// Quantidade is the only discriminator between a loss and a stock entry:
// negative means loss, zero or positive means entry. No separate flag is
// stored, so callers must re-derive the class from the sign on every read.
type LossEvent struct {
	ID            int64           `json:"id"`
	Tenant        string          `json:"tenant"`
	Barcode       string          `json:"codigo_barras"`
	Descricao     string          `json:"descricao"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	CustoUnitario decimal.Decimal `json:"custo_unitario"`
	Motivo        string          `json:"motivo"`
	SecaoCodigo   string          `json:"secao_codigo"`
	SecaoNome     string          `json:"secao_nome"`
	ImportadoEm   time.Time       `json:"importado_em"`
	PeriodoInicio time.Time       `json:"periodo_inicio"`
	PeriodoFim    time.Time       `json:"periodo_fim"`
	Lote          string          `json:"lote"`
}

// IsLoss reports whether the event is a loss (negative adjustment).
func (e *LossEvent) IsLoss() bool {
	return e.Quantidade.IsNegative()
}

// Valor returns the monetary value of the event: |quantity x unit cost| for
// losses, quantity x unit cost for entries.
func (e *LossEvent) Valor() decimal.Decimal {
	v := e.Quantidade.Mul(e.CustoUnitario)
	if e.IsLoss() {
		return v.Abs()
	}
	return v
}

// Lot is a named group of events from one import run. It is not stored as a
// separate entity; it is derived by grouping loss_events on (tenant, lote).
type Lot struct {
	Tenant        string    `json:"tenant"`
	Nome          string    `json:"lote"`
	ImportadoEm   time.Time `json:"importado_em"`
	PeriodoInicio time.Time `json:"periodo_inicio"`
	PeriodoFim    time.Time `json:"periodo_fim"`
	Registros     int       `json:"registros"`
}

// ImportSummary is returned to the caller after a successful import.
type ImportSummary struct {
	Lote     string `json:"lote"`
	Total    int    `json:"total"`
	Perdas   int    `json:"perdas"`
	Entradas int    `json:"entradas"`
}

// SecaoOutros is the fallback section name for unknown section codes.
const SecaoOutros = "Outros"

// secoes maps the vendor's numeric section codes to display names. Codes not
// present here resolve to SecaoOutros.
var secoes = map[string]string{
	"1":  "Mercearia",
	"2":  "Açougue",
	"3":  "Hortifruti",
	"4":  "Padaria",
	"5":  "Frios e Laticínios",
	"6":  "Bebidas",
	"7":  "Limpeza",
	"8":  "Higiene e Beleza",
	"9":  "Congelados",
	"10": "Peixaria",
	"11": "Bazar",
	"12": "Pet Shop",
	"13": "Eletro",
	"14": "Têxtil",
	"15": "Rotisseria",
	"16": "Floricultura",
}

// SectionName resolves a numeric section code to its display name.
func SectionName(code string) string {
	if name, ok := secoes[code]; ok {
		return name
	}
	return SecaoOutros
}
