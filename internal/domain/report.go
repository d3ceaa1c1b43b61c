package domain

import "github.com/shopspring/decimal"

// Estatisticas summarises the active (non-ignored) subset of a report range.
// Ignored reasons never contribute here; they only appear in the ranking
// cards tagged with Ignorado.
type Estatisticas struct {
	TotalPerdas        int             `json:"total_perdas"`
	ValorTotalPerdas   decimal.Decimal `json:"valor_total_perdas"`
	TotalEntradas      int             `json:"total_entradas"`
	ValorTotalEntradas decimal.Decimal `json:"valor_total_entradas"`
}

// MotivoRanking is one per-reason ranking card. It is computed over all rows
// of the reason, including ignored ones, so operators can still see what an
// ignored reason would amount to.
type MotivoRanking struct {
	Motivo      string          `json:"motivo"`
	Ocorrencias int             `json:"ocorrencias"`
	Quantidade  decimal.Decimal `json:"quantidade"`
	ValorTotal  decimal.Decimal `json:"valor_total"`
	Ignorado    bool            `json:"ignorado"`
}

// ProdutoRanking is one per-product ranking row, aggregated over the active
// subset only.
type ProdutoRanking struct {
	Barcode     string          `json:"codigo_barras"`
	Descricao   string          `json:"descricao"`
	Secao       string          `json:"secao"`
	Ocorrencias int             `json:"ocorrencias"`
	Quantidade  decimal.Decimal `json:"quantidade"`
	ValorTotal  decimal.Decimal `json:"valor_total"`
}

// Paginacao describes the page slice applied to the product ranking.
type Paginacao struct {
	Pagina       int `json:"pagina"`
	PorPagina    int `json:"por_pagina"`
	TotalItens   int `json:"total_itens"`
	TotalPaginas int `json:"total_paginas"`
}

// Report is the aggregate view returned for a date range.
type Report struct {
	Estatisticas    Estatisticas     `json:"estatisticas"`
	MotivosRanking  []MotivoRanking  `json:"motivos_ranking"`
	EntradasRanking []MotivoRanking  `json:"entradas_ranking"`
	ProdutosRanking []ProdutoRanking `json:"produtos_ranking"`
	Paginacao       Paginacao        `json:"paginacao"`
}
