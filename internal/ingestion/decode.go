package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Row is one decoded export line, keyed by the header labels exactly as they
// appear in the file (which may be the mojibake spelling, see Field).
type Row map[string]string

// Canonical header labels of the vendor export. Exports produced through the
// vendor's legacy pipeline arrive with UTF-8 bytes re-read as Windows-1252,
// so every accented label also has a well-known corrupted spelling.
const (
	HeaderBarcode   = "Código de Barras"
	HeaderDescricao = "Descrição"
	HeaderQtd       = "Quantidade Ajustada"
	HeaderCusto     = "Custo de Reposição"
	HeaderMotivo    = "Descrição Completa do Motivo"
	HeaderSecao     = "Seção"
)

// headerAliases maps each canonical label to its accepted spellings, the
// correct one first.
var headerAliases = map[string][]string{
	HeaderBarcode:   {HeaderBarcode, "CÃ³digo de Barras"},
	HeaderDescricao: {HeaderDescricao, "DescriÃ§Ã£o"},
	HeaderQtd:       {HeaderQtd},
	HeaderCusto:     {HeaderCusto, "Custo de ReposiÃ§Ã£o"},
	HeaderMotivo:    {HeaderMotivo, "DescriÃ§Ã£o Completa do Motivo"},
	HeaderSecao:     {HeaderSecao, "SeÃ§Ã£o"},
}

// barcodeSentinels are letterhead fragments the vendor emits inside the data
// region. A row whose barcode cell contains any of them is not product data.
var barcodeSentinels = []string{
	"CNPJ",
	"INSCRIÇÃO",
	"INSCRIÃ‡ÃƒO",
	"SUPERMERCADO",
	"TOTAL GERAL",
}

// preambleLines is the vendor's typical preamble length, used only when no
// header line can be located.
const preambleLines = 9

// Field returns the cell for a canonical header label, trying the correct
// spelling first and then the known corrupted one.
func Field(row Row, label string) string {
	for _, alias := range headerAliases[label] {
		if v, ok := row[alias]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// DecodeRows turns a raw vendor export into data rows. It decodes the byte
// stream (UTF-8 with a Windows-1252 fallback), locates the real header line
// inside the preamble, parses the remainder as ';'-separated values and drops
// rows that carry no product data.
//
// A structural parse failure aborts the whole file; callers must not persist
// anything in that case.
func DecodeRows(data []byte) ([]Row, int, error) {
	text := decodeText(data)

	lines := strings.Split(text, "\n")
	start := locateHeader(lines)
	body := strings.Join(lines[start:], "\n")

	reader := csv.NewReader(strings.NewReader(body))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("arquivo vazio após o preâmbulo")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("ler cabeçalho: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	seen := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("linha %d: %w", seen+2, err)
		}
		if blankRecord(record) {
			continue
		}
		seen++

		row := make(Row, len(header))
		for i, label := range header {
			if i < len(record) {
				row[label] = record[i]
			}
		}
		if acceptRow(row) {
			rows = append(rows, row)
		}
	}

	return rows, seen, nil
}

// decodeText interprets raw bytes as UTF-8, falling back to Windows-1252
// when the buffer is not valid UTF-8 or already carries replacement markers.
// The probe is deterministic: the same bytes always decode the same way.
func decodeText(data []byte) string {
	data = stripBOM(data)

	if utf8.Valid(data) && !bytes.ContainsRune(data, utf8.RuneError) {
		return string(data)
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		// Windows-1252 maps every byte, so this should not happen; keep
		// the lossy UTF-8 reading rather than failing the import.
		return string(data)
	}
	return string(decoded)
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
}

// locateHeader returns the index of the first line that contains the barcode
// header token in either spelling. When the token is absent it falls back to
// skipping the vendor's usual preamble.
func locateHeader(lines []string) int {
	for i, line := range lines {
		for _, alias := range headerAliases[HeaderBarcode] {
			if strings.Contains(line, alias) {
				return i
			}
		}
	}
	if len(lines) > preambleLines {
		return preambleLines
	}
	return 0
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// acceptRow keeps only rows that identify a product: a non-empty barcode or
// description, with the barcode not matching any letterhead sentinel.
func acceptRow(row Row) bool {
	barcode := Field(row, HeaderBarcode)
	descricao := Field(row, HeaderDescricao)
	if barcode == "" && descricao == "" {
		return false
	}

	upper := strings.ToUpper(barcode)
	for _, sentinel := range barcodeSentinels {
		if sentinel != "" && strings.Contains(upper, sentinel) {
			return false
		}
	}
	return true
}
