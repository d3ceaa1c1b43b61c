package ingestion

import (
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

const sampleExport = `SUPERMERCADO QUITANDA LTDA;;;;;
CNPJ 12.345.678/0001-90;;;;;
Relatório de Ajustes de Estoque;;;;;
;;;;;
Código de Barras;Descrição;Quantidade Ajustada;Custo de Reposição;Descrição Completa do Motivo;Seção
7891234500018;ARROZ TIPO 1 5KG;-2,000;21,90;Avaria na movimentação;1
7891000100103;LEITE UHT INTEGRAL 1L;-12,000;4,79;Vencimento de validade;5
;;;;;
;PÃO FRANCÊS KG;-3,100;14,50;Sobra de produção;4
TOTAL GERAL;;;;;
`

func TestDecodeRows_LocatesHeaderInsidePreamble(t *testing.T) {
	rows, seen, err := DecodeRows([]byte(sampleExport))
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	// TOTAL GERAL line is seen but filtered out as a letterhead sentinel.
	if seen != 4 {
		t.Errorf("seen = %d, want 4", seen)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	if got := Field(rows[0], HeaderBarcode); got != "7891234500018" {
		t.Errorf("barcode = %q", got)
	}
	if got := Field(rows[0], HeaderMotivo); got != "Avaria na movimentação" {
		t.Errorf("motivo = %q", got)
	}
	// Row with description only, no barcode, is still accepted.
	if got := Field(rows[2], HeaderDescricao); got != "PÃO FRANCÊS KG" {
		t.Errorf("descricao = %q", got)
	}
}

func TestDecodeRows_Windows1252Fallback(t *testing.T) {
	encoded, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(sampleExport))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	utf8Rows, _, err := DecodeRows([]byte(sampleExport))
	if err != nil {
		t.Fatalf("DecodeRows utf8: %v", err)
	}
	cpRows, _, err := DecodeRows(encoded)
	if err != nil {
		t.Fatalf("DecodeRows cp1252: %v", err)
	}

	if len(cpRows) != len(utf8Rows) {
		t.Fatalf("cp1252 rows = %d, utf8 rows = %d", len(cpRows), len(utf8Rows))
	}
	for _, label := range []string{HeaderBarcode, HeaderDescricao, HeaderQtd, HeaderCusto, HeaderMotivo, HeaderSecao} {
		for i := range cpRows {
			if Field(cpRows[i], label) != Field(utf8Rows[i], label) {
				t.Errorf("row %d field %q: cp1252 %q != utf8 %q",
					i, label, Field(cpRows[i], label), Field(utf8Rows[i], label))
			}
		}
	}
}

func TestDecodeRows_BOMStripped(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(sampleExport)...)
	rows, _, err := DecodeRows(data)
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("len(rows) = %d, want 3", len(rows))
	}
}

func TestDecodeRows_MojibakeHeader(t *testing.T) {
	// A file whose header arrives already corrupted (UTF-8 bytes that were
	// re-read as Windows-1252 upstream) must still parse identically.
	corrupted := sampleExport
	for proper, aliases := range headerAliases {
		if len(aliases) > 1 {
			corrupted = strings.Replace(corrupted, proper, aliases[1], 1)
		}
	}

	rows, _, err := DecodeRows([]byte(corrupted))
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if got := Field(rows[1], HeaderBarcode); got != "7891000100103" {
		t.Errorf("barcode via mojibake header = %q", got)
	}
	if got := Field(rows[1], HeaderCusto); got != "4,79" {
		t.Errorf("custo via mojibake header = %q", got)
	}
}

func TestDecodeRows_NoHeaderFallsBackToFixedPreamble(t *testing.T) {
	var b strings.Builder
	for i := 0; i < preambleLines; i++ {
		b.WriteString("linha de cabeçalho qualquer;;;;;\n")
	}
	b.WriteString("Barras;Produto;Qtd;Custo;Motivo;Sec\n")
	b.WriteString("123;CAFE;-1;9,90;Quebra;1\n")

	rows, seen, err := DecodeRows([]byte(b.String()))
	if err != nil {
		t.Fatalf("DecodeRows: %v", err)
	}
	// Without recognised labels the row has no barcode/description and is
	// dropped, but it must have been decoded past the preamble.
	if seen != 1 {
		t.Errorf("seen = %d, want 1", seen)
	}
	if len(rows) != 0 {
		t.Errorf("len(rows) = %d, want 0", len(rows))
	}
}

func TestDecodeRows_EmptyInput(t *testing.T) {
	if _, _, err := DecodeRows(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestAcceptRow_Sentinels(t *testing.T) {
	cases := []struct {
		barcode string
		desc    string
		want    bool
	}{
		{"7891234500018", "ARROZ", true},
		{"", "ARROZ", true},
		{"7891234500018", "", true},
		{"", "", false},
		{"CNPJ 12.345.678/0001-90", "x", false},
		{"SUPERMERCADO QUITANDA", "", false},
		{"TOTAL GERAL", "", false},
	}
	for _, tc := range cases {
		row := Row{HeaderBarcode: tc.barcode, HeaderDescricao: tc.desc}
		if got := acceptRow(row); got != tc.want {
			t.Errorf("acceptRow(%q, %q) = %v, want %v", tc.barcode, tc.desc, got, tc.want)
		}
	}
}
