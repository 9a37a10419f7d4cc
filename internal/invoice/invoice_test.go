package invoice

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superloja/internal/domain"
)

func doc(n int) Doc {
	d := Doc{
		StoreName: "SuperLoja",
		Order: domain.Order{
			ID: "3f2a9c1e-0000-4000-8000-000000000001", Channel: domain.ChannelWeb,
			CustomerName: "Ana Souza", CustomerEmail: "ana@superloja.test",
			PaymentMethod: "pix", PaymentStatus: "pending", CreatedAt: "2026-05-01 10:00:00",
		},
		OrderURL: "https://loja.test/order/3f2a9c1e",
	}
	for i := 0; i < n; i++ {
		d.Items = append(d.Items, domain.OrderItem{
			ProductID: fmt.Sprintf("p-%d", i), ProductName: fmt.Sprintf("Produto %d", i),
			Quantity: i%3 + 1, UnitPrice: domain.Money(1990 + i),
		})
	}
	return d
}

func TestLayoutSinglePage(t *testing.T) {
	p := Layout(doc(3), InvoiceStyle)
	assert.Equal(t, 1, p.Pages)
	sections := []string{}
	for _, b := range p.Blocks {
		sections = append(sections, b.Section)
	}
	assert.Equal(t, []string{SecHeader, SecCustomer, SecTableHeader, SecItem, SecItem, SecItem, SecTotals, SecFooter}, sections)
	assert.Equal(t, InvoiceStyle.Page.Top, p.Blocks[0].Y)
}

func TestLayoutBreaksPagesAndRepeatsHeader(t *testing.T) {
	st := InvoiceStyle
	p := Layout(doc(60), st)
	require.Greater(t, p.Pages, 1)

	limit := st.Page.Height - st.Page.Bottom
	firstOnPage := map[int]Block{}
	items := 0
	for _, b := range p.Blocks {
		assert.LessOrEqual(t, b.Y+b.H, limit, "%s on page %d overflows", b.Section, b.Page)
		if _, ok := firstOnPage[b.Page]; !ok {
			firstOnPage[b.Page] = b
		}
		if b.Section == SecItem {
			items++
		}
	}
	assert.Equal(t, 60, items)
	for page := 2; page <= p.Pages; page++ {
		b := firstOnPage[page]
		assert.Equal(t, st.Page.Top, b.Y)
		if b.Section != SecTotals && b.Section != SecFooter {
			assert.Equal(t, SecTableHeader, b.Section, "page %d", page)
		}
	}
}

func TestRenderInvoice(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, doc(40)))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestReceiptIsOnePage(t *testing.T) {
	d := doc(25)
	d.Order.Channel = domain.ChannelPOS
	p := Layout(d, ReceiptStyle)
	assert.Equal(t, 1, p.Pages)

	var buf bytes.Buffer
	require.NoError(t, Receipt(&buf, d))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestTotalMatchesOrderTotal(t *testing.T) {
	d := doc(4)
	var want domain.Money
	for _, it := range d.Items {
		want += it.UnitPrice * domain.Money(it.Quantity)
	}
	assert.Equal(t, want, d.Total())
}
