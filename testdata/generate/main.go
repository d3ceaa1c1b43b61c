// Command generate writes sample vendor inventory-adjustment exports into
// testdata/, in both encodings the importer must handle: plain UTF-8 and the
// legacy Windows-1252 variant.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var preamble = []string{
	"SUPERMERCADO QUITANDA LTDA;;;;;",
	"CNPJ 12.345.678/0001-90;;;;;",
	"Relatório de Ajustes de Estoque;;;;;",
	"Emitido em 29/08/2026;;;;;",
	";;;;;",
}

const header = "Código de Barras;Descrição;Quantidade Ajustada;Custo de Reposição;Descrição Completa do Motivo;Seção"

var rows = []string{
	"7891234500018;ARROZ TIPO 1 5KG;-2,000;21,90;Avaria na movimentação;1",
	"7891000100103;LEITE UHT INTEGRAL 1L;-12,000;4,79;Vencimento de validade;5",
	"7896004400011;PICANHA BOVINA KG;-1,350;89,90;Furto constatado;2",
	"0000000017886;MAÇÃ GALA KG;-4,200;8,99;Deterioração natural;3",
	"7891910000197;REFRIGERANTE COLA 2L;6,000;7,49;Retorno de empréstimo;6",
	"7896036090244;DETERGENTE NEUTRO 500ML;24,000;2,19;Acerto de inventário;7",
	";PÃO FRANCÊS KG;-3,100;14,50;Sobra de produção descartada;4",
}

func main() {
	outDir := "testdata"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	var b strings.Builder
	for _, line := range preamble {
		b.WriteString(line + "\r\n")
	}
	b.WriteString(header + "\r\n")
	for _, line := range rows {
		b.WriteString(line + "\r\n")
	}
	content := b.String()

	utf8Path := filepath.Join(outDir, "ajustes_utf8.csv")
	if err := os.WriteFile(utf8Path, []byte(content), 0o644); err != nil {
		log.Fatalf("write %s: %v", utf8Path, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", utf8Path, len(content))

	encoded, _, err := transform.Bytes(charmap.Windows1252.NewEncoder(), []byte(content))
	if err != nil {
		log.Fatalf("encode windows-1252: %v", err)
	}
	cpPath := filepath.Join(outDir, "ajustes_cp1252.csv")
	if err := os.WriteFile(cpPath, encoded, 0o644); err != nil {
		log.Fatalf("write %s: %v", cpPath, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", cpPath, len(encoded))
}
