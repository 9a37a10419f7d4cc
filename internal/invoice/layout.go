// Package invoice renders order invoices (A4) and thermal receipts (80 mm) as PDF.
package invoice

import (
	"math"

	"superloja/internal/domain"
)

const (
	SecHeader      = "header"
	SecCustomer    = "customer"
	SecTableHeader = "table_header"
	SecItem        = "item"
	SecTotals      = "totals"
	SecFooter      = "footer"
)

type Doc struct {
	StoreName string
	Order     domain.Order
	Items     []domain.OrderItem
	// OrderURL is encoded in the footer QR code.
	OrderURL string
}

// Total is the amount printed on the totals line.
func (d Doc) Total() domain.Money { return domain.OrderTotal(d.Items) }

// Page is measured in millimetres.
type Page struct {
	Width, Height float64
	Top, Bottom   float64
	Left, Right   float64
}

// Style holds the page and the height of every section.
type Style struct {
	Page        Page
	Header      float64
	Customer    float64
	TableHeader float64
	Item        float64
	Totals      float64
	Footer      float64
	QR          bool
}

var InvoiceStyle = Style{
	Page:        Page{Width: 210, Height: 297, Top: 15, Bottom: 20, Left: 15, Right: 15},
	Header:      26,
	Customer:    30,
	TableHeader: 8,
	Item:        7,
	Totals:      18,
	Footer:      42,
	QR:          true,
}

// ReceiptStyle has no bottom edge: the page grows with the content.
var ReceiptStyle = Style{
	Page:        Page{Width: 80, Height: math.Inf(1), Top: 5, Bottom: 6, Left: 4, Right: 4},
	Header:      16,
	Customer:    12,
	TableHeader: 6,
	Item:        9,
	Totals:      14,
	Footer:      8,
}

type Block struct {
	Section string
	Item    int
	Page    int
	Y       float64
	H       float64
}

type Plan struct {
	Style  Style
	Blocks []Block
	Pages  int
	// End is the cursor after the last block.
	End float64
}

// Layout places every section top-down. A block that would cross the bottom
// margin moves to a fresh page; item rows repeat the table header there.
func Layout(d Doc, st Style) Plan {
	p := Plan{Style: st, Pages: 1}
	y := st.Page.Top
	limit := st.Page.Height - st.Page.Bottom

	place := func(sec string, item int, h float64, inTable bool) {
		if y+h > limit && y > st.Page.Top {
			p.Pages++
			y = st.Page.Top
			if inTable {
				p.Blocks = append(p.Blocks, Block{Section: SecTableHeader, Item: -1, Page: p.Pages, Y: y, H: st.TableHeader})
				y += st.TableHeader
			}
		}
		p.Blocks = append(p.Blocks, Block{Section: sec, Item: item, Page: p.Pages, Y: y, H: h})
		y += h
	}

	place(SecHeader, -1, st.Header, false)
	place(SecCustomer, -1, st.Customer, false)
	place(SecTableHeader, -1, st.TableHeader, false)
	for i := range d.Items {
		place(SecItem, i, st.Item, true)
	}
	place(SecTotals, -1, st.Totals, false)
	place(SecFooter, -1, st.Footer, false)
	p.End = y
	return p
}
