// Package erp talks to the retailer's ERP over its reporting mirror. The ERP
// is an external collaborator: this package only issues parameterized
// read-only queries and maps the row sets into Go types.
package erp

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// ProductLoss is one per-product loss figure for a date range. Codigo is the
// ERP's internal sequential product code; Barcode is the vendor barcode. The
// two systems disagree on zero padding, which is why reconciliation works on
// a normalized key set rather than on either field directly.
type ProductLoss struct {
	Codigo     string          `db:"codigo" json:"codigo"`
	Barcode    string          `db:"barras" json:"codigo_barras"`
	Valor      decimal.Decimal `db:"valor" json:"valor"`
	Quantidade decimal.Decimal `db:"qtd" json:"quantidade"`
}

// Product is one catalog row used to attach live descriptions to reports.
type Product struct {
	Codigo    string `db:"codigo" json:"codigo"`
	Barcode   string `db:"barras" json:"codigo_barras"`
	Descricao string `db:"descricao" json:"descricao"`
	Secao     string `db:"secao" json:"secao"`
}

// Querier is the remote tabular-query surface consumed by the reconciliation
// service.
type Querier interface {
	ProductLosses(ctx context.Context, from, to time.Time) ([]ProductLoss, error)
	ProductCatalog(ctx context.Context, barcodes []string) ([]Product, error)
}

// Client queries the ERP mirror over database/sql via sqlx. The driver is
// chosen by configuration; a long-running query blocks its caller until the
// surrounding transport layer aborts the request.
type Client struct {
	db *sqlx.DB
}

// Connect opens the ERP mirror connection.
func Connect(driver, dsn string) (*Client, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect erp: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// ProductLosses returns the summed loss value and quantity per product for
// adjustments inside [from, to].
func (c *Client) ProductLosses(ctx context.Context, from, to time.Time) ([]ProductLoss, error) {
	const q = `SELECT p.codigo AS codigo,
			COALESCE(p.barras, '') AS barras,
			SUM(a.valor) AS valor,
			SUM(a.quantidade) AS qtd
		FROM ajustes_estoque a
		JOIN produtos p ON p.codigo = a.produto_codigo
		WHERE a.quantidade < 0 AND a.data BETWEEN ? AND ?
		GROUP BY p.codigo, p.barras`

	var rows []ProductLoss
	err := c.db.SelectContext(ctx, &rows, q,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("query product losses: %w", err)
	}
	return rows, nil
}

// ProductCatalog returns live catalog rows for the given barcodes.
func (c *Client) ProductCatalog(ctx context.Context, barcodes []string) ([]Product, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}

	q, args, err := sqlx.In(
		`SELECT p.codigo AS codigo,
			COALESCE(p.barras, '') AS barras,
			p.descricao AS descricao,
			COALESCE(s.nome, '') AS secao
		FROM produtos p
		LEFT JOIN secoes s ON s.codigo = p.secao_codigo
		WHERE p.barras IN (?)`, barcodes)
	if err != nil {
		return nil, fmt.Errorf("build catalog query: %w", err)
	}

	var rows []Product
	if err := c.db.SelectContext(ctx, &rows, c.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	return rows, nil
}
