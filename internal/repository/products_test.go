package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/domain"
)

// arrayRoundTrip 按数据库返回的文本格式编码后再扫描回来
func arrayRoundTrip(t *testing.T, m *pgtype.Map, oid uint32, src any, dst any) {
	t.Helper()

	buf, err := m.Encode(oid, pgtype.TextFormatCode, src, nil)
	require.NoError(t, err)
	require.NoError(t, m.SQLScanner(dst).Scan(string(buf)))
}

func TestVariantColumnsSurviveArrayEncoding(t *testing.T) {
	variants := []domain.ProductVariant{
		{Name: "Null", BasePrice: 12.5, MarkupPrice: 13.75, Image: "", Stock: 3},
		{Name: "  XL  ", BasePrice: 20, MarkupPrice: 22, Image: "https://cdn.example.com/xl.png", Stock: 0},
		{Name: `Red, "large"`, BasePrice: 0, MarkupPrice: 0, Image: "", Stock: 7},
		{Name: "NULL", BasePrice: 1, MarkupPrice: 1.1, Image: `back\slash.png`, Stock: 1},
	}

	m := pgtype.NewMap()
	written := splitVariants(variants)

	var read variantColumns
	arrayRoundTrip(t, m, pgtype.TextArrayOID, written.names, &read.names)
	arrayRoundTrip(t, m, pgtype.NumericArrayOID, written.basePrices, &read.basePrices)
	arrayRoundTrip(t, m, pgtype.NumericArrayOID, written.markupPrices, &read.markupPrices)
	arrayRoundTrip(t, m, pgtype.TextArrayOID, written.images, &read.images)
	arrayRoundTrip(t, m, pgtype.Int4ArrayOID, written.stocks, &read.stocks)

	assert.Equal(t, variants, read.assemble())
}

func TestVariantColumnsEmpty(t *testing.T) {
	m := pgtype.NewMap()
	written := splitVariants(nil)

	var read variantColumns
	arrayRoundTrip(t, m, pgtype.TextArrayOID, written.names, &read.names)
	arrayRoundTrip(t, m, pgtype.TextArrayOID, written.images, &read.images)

	assert.Empty(t, read.assemble())
}

func TestAssembleToleratesShortColumns(t *testing.T) {
	vc := variantColumns{
		names:      []string{"小份", "大份"},
		basePrices: []float64{10},
		stocks:     []int32{5},
	}

	assert.Equal(t, []domain.ProductVariant{
		{Name: "小份", BasePrice: 10, Stock: 5},
		{Name: "大份"},
	}, vc.assemble())
}

func TestObjectURLsDropsEmptyEntries(t *testing.T) {
	urls := objectURLs(
		[]string{"https://cdn.example.com/a.png", ""},
		nil,
		[]string{"", "https://cdn.example.com/b.png"},
	)
	assert.Equal(t, []string{"https://cdn.example.com/a.png", "https://cdn.example.com/b.png"}, urls)
}
