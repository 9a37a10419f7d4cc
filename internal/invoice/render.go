package invoice

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/skip2/go-qrcode"

	"superloja/internal/domain"
)

// Render writes the A4 invoice.
func Render(w io.Writer, d Doc) error {
	plan := Layout(d, InvoiceStyle)
	pdf := fpdf.New("P", "mm", "A4", "")
	return draw(w, pdf, d, plan)
}

// Receipt writes the 80 mm receipt on one page sized to its content.
func Receipt(w io.Writer, d Doc) error {
	plan := Layout(d, ReceiptStyle)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: ReceiptStyle.Page.Width, Ht: plan.End + ReceiptStyle.Page.Bottom},
	})
	return draw(w, pdf, d, plan)
}

type painter struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	st    Style
	doc   Doc
	width float64
	small bool
}

func draw(w io.Writer, pdf *fpdf.Fpdf, d Doc, plan Plan) error {
	st := plan.Style
	pdf.SetMargins(st.Page.Left, st.Page.Top, st.Page.Right)
	pdf.SetAutoPageBreak(false, 0)
	p := &painter{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		st:    st,
		doc:   d,
		width: st.Page.Width - st.Page.Left - st.Page.Right,
		small: st.Page.Width < 100,
	}

	page := 0
	for _, b := range plan.Blocks {
		for page < b.Page {
			pdf.AddPage()
			page++
		}
		switch b.Section {
		case SecHeader:
			p.header(b.Y)
		case SecCustomer:
			p.customer(b.Y)
		case SecTableHeader:
			p.tableHeader(b.Y)
		case SecItem:
			p.item(b.Y, d.Items[b.Item])
		case SecTotals:
			p.totals(b.Y)
		case SecFooter:
			if err := p.footer(b.Y); err != nil {
				return err
			}
		}
	}
	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.Output(w)
}

func (p *painter) font(style string, size float64) {
	if p.small {
		size -= 2
	}
	p.pdf.SetFont("Helvetica", style, size)
}

func (p *painter) text(x, y, w, h float64, s, align string) {
	p.pdf.SetXY(x, y)
	p.pdf.CellFormat(w, h, p.tr(s), "", 0, align, false, 0, "")
}

func (p *painter) header(y float64) {
	x := p.st.Page.Left
	p.font("B", 16)
	p.text(x, y, p.width, 8, p.doc.StoreName, "L")
	p.font("", 10)
	label := "Pedido"
	if p.doc.Order.Channel == domain.ChannelPOS {
		label = "Venda balcão"
	}
	p.text(x, y+9, p.width, 5, fmt.Sprintf("%s #%s", label, shortID(p.doc.Order.ID)), "L")
	p.text(x, y+14, p.width, 5, "Data: "+p.doc.Order.CreatedAt, "L")
	p.pdf.Line(x, y+p.st.Header-2, x+p.width, y+p.st.Header-2)
}

func (p *painter) customer(y float64) {
	o := p.doc.Order
	x := p.st.Page.Left
	p.font("B", 11)
	p.text(x, y, p.width, 6, "Cliente", "L")
	p.font("", 10)
	lines := []string{o.CustomerName}
	if !p.small {
		lines = append(lines, strings.TrimSpace(o.CustomerEmail+"  "+o.CustomerPhone), o.ShippingAddress)
	}
	for i, l := range lines {
		p.text(x, y+6+float64(i)*5, p.width, 5, l, "L")
	}
}

func (p *painter) columns() (name, qty, unit, sub float64) {
	if p.small {
		return p.width, 0, 0, 0
	}
	return p.width * 0.52, p.width * 0.12, p.width * 0.18, p.width * 0.18
}

func (p *painter) tableHeader(y float64) {
	x := p.st.Page.Left
	p.font("B", 10)
	p.pdf.SetFillColor(235, 235, 235)
	p.pdf.Rect(x, y, p.width, p.st.TableHeader-1, "F")
	if p.small {
		p.text(x, y, p.width, p.st.TableHeader-1, "Itens", "L")
		return
	}
	n, q, u, s := p.columns()
	p.text(x, y, n, p.st.TableHeader-1, "Produto", "L")
	p.text(x+n, y, q, p.st.TableHeader-1, "Qtd", "C")
	p.text(x+n+q, y, u, p.st.TableHeader-1, "Unitário", "R")
	p.text(x+n+q+u, y, s, p.st.TableHeader-1, "Subtotal", "R")
}

func (p *painter) item(y float64, it domain.OrderItem) {
	x := p.st.Page.Left
	p.font("", 10)
	if p.small {
		p.text(x, y, p.width, 4, it.ProductName, "L")
		p.text(x, y+4, p.width, 4, fmt.Sprintf("%d x %s = %s", it.Quantity, it.UnitPrice, it.Subtotal()), "R")
		return
	}
	n, q, u, s := p.columns()
	p.text(x, y, n, p.st.Item, truncate(it.ProductName, 48), "L")
	p.text(x+n, y, q, p.st.Item, fmt.Sprintf("%d", it.Quantity), "C")
	p.text(x+n+q, y, u, p.st.Item, it.UnitPrice.String(), "R")
	p.text(x+n+q+u, y, s, p.st.Item, it.Subtotal().String(), "R")
}

func (p *painter) totals(y float64) {
	x := p.st.Page.Left
	p.pdf.Line(x, y+1, x+p.width, y+1)
	p.font("B", 12)
	p.text(x, y+3, p.width, 7, "Total: "+p.doc.Total().String(), "R")
	p.font("", 9)
	o := p.doc.Order
	p.text(x, y+10, p.width, 5, fmt.Sprintf("Pagamento: %s (%s)", o.PaymentMethod, o.PaymentStatus), "R")
}

func (p *painter) footer(y float64) error {
	x := p.st.Page.Left
	p.font("I", 9)
	if !p.st.QR || p.doc.OrderURL == "" {
		p.text(x, y+1, p.width, 5, "Obrigado pela preferência!", "C")
		return nil
	}
	png, err := qrcode.Encode(p.doc.OrderURL, qrcode.Medium, 256)
	if err != nil {
		return err
	}
	name := "qr-" + p.doc.Order.ID
	p.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	size := p.st.Footer - 6
	p.pdf.ImageOptions(name, x, y+2, size, size, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	p.text(x+size+4, y+size/2-2, p.width-size-4, 5, "Acompanhe seu pedido:", "L")
	p.text(x+size+4, y+size/2+3, p.width-size-4, 5, p.doc.OrderURL, "L")
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
