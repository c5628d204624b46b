package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00 B"},
		{512, "512.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
		{2 * 1024 * 1024 * 1024 * 1024, "2.00 TB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanSize(tt.in), tt.in)
	}
}

func TestPreview(t *testing.T) {
	header := []string{"hgnc_symbol", "chromosome"}

	assert.Equal(t, NoPreview, Preview(header, nil, 5))
	assert.Equal(t, NoPreview, Preview(nil, [][]string{{"APOE"}}, 5))

	rows := [][]string{{"APOE", "19"}, {"APP", "21"}, {"CLU", "8"}, {"GFAP", "17"}, {"MAPT", "17"}, {"TREM2", "6"}}
	assert.Equal(t,
		"hgnc_symbol: APOE, hgnc_symbol: APP, hgnc_symbol: CLU, hgnc_symbol: GFAP, hgnc_symbol: MAPT",
		Preview(header, rows, 5))

	long := strings.Repeat("x", 60)
	assert.Equal(t, "hgnc_symbol: "+strings.Repeat("x", 50)+"...", Preview(header, [][]string{{long}}, 5))
	assert.Equal(t, "hgnc_symbol: "+strings.Repeat("x", 50), Preview(header, [][]string{{strings.Repeat("x", 50)}}, 5))
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	assert.Equal(t, "gene_AD_Microglia_20240309_140507_abc.csv", FileName("gene", "AD", "Microglia", at, "abc"))
	assert.Equal(t, "query_unknown_unknown_20240309_140507_abc.csv", FileName("", "", " ", at, "abc"))
	assert.Equal(t, "gene_Alzheimer-s-disease_etc-passwd_20240309_140507_abc.csv",
		FileName("gene", "Alzheimer's disease", "../etc/passwd", at, "abc"))
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	r := NewRecord("id1", "tf", "AD", "Microglia", at)

	assert.Equal(t, "Tf Results (AD, Microglia)", r.Title)
	assert.Equal(t, "Search for AD in Microglia cells", r.Description)
	assert.Equal(t, "Tf", r.Type)
	assert.Equal(t, "2024-03-09 14:05:07", r.Date)
	assert.Equal(t, "tf_AD_Microglia_20240309_140507_id1.csv", r.Filename)

	r.Size = HumanSize(100)
	r.Rows = 3
	assert.Equal(t, r, RecordFromMetadata(r.Metadata()))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"hgnc_symbol", "pathway"}, [][]string{
		{"APOE", "Lipid metabolism"},
		{"TREM2", "Immune, response"},
		{"APP", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "hgnc_symbol,pathway\nAPOE,Lipid metabolism\nTREM2,\"Immune, response\"\nAPP,\n", buf.String())
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Gene", Capitalize("gene"))
	assert.Equal(t, "Cre", Capitalize("CRE"))
	assert.Equal(t, "", Capitalize(""))
}
