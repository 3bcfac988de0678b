package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/net/html"
)

type rgb struct{ r, g, b int }

// Couleurs des classes CSS des rapports.
var classColors = map[string]struct{ fill, text rgb }{
	"na-darkblue":   {fill: rgb{0x26, 0x34, 0x8d}, text: rgb{255, 255, 255}},
	"na-lightgreen": {fill: rgb{0xb9, 0xe7, 0xc5}, text: rgb{0, 0, 0}},
	"na-yellow":     {fill: rgb{0xff, 0xe0, 0x66}, text: rgb{0, 0, 0}},
	"na-orange":     {fill: rgb{0xfd, 0x7e, 0x14}, text: rgb{255, 255, 255}},
	"na-red":        {fill: rgb{0xdc, 0x35, 0x45}, text: rgb{255, 255, 255}},
	"na-future":     {fill: rgb{0xf8, 0xf9, 0xfa}, text: rgb{0x99, 0x99, 0x99}},
}

var (
	headerFill = rgb{0xf2, 0xf2, 0xf2}
	borderGray = rgb{0xdd, 0xdd, 0xdd}
)

// FPDFConverter met en page les titres et tableaux du HTML des rapports avec fpdf.
// Les autres éléments sont ignorés.
type FPDFConverter struct {
	Orientation string
	PageSize    string
	// CreatedAt fige la date de création (sortie reproductible); zéro = maintenant.
	CreatedAt time.Time
}

func NewFPDFConverter() *FPDFConverter {
	return &FPDFConverter{Orientation: "L", PageSize: "A4"}
}

type pdfCell struct {
	text   string
	class  string
	header bool
}

type layout struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (c *FPDFConverter) Convert(doc []byte) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	pdf := fpdf.New(c.Orientation, "mm", c.PageSize, "")
	if !c.CreatedAt.IsZero() {
		pdf.SetCreationDate(c.CreatedAt)
		pdf.SetModificationDate(c.CreatedAt)
	}
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	l := &layout{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	l.walk(root)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (l *layout) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "head", "style", "script":
			return
		case "h1":
			l.heading(text(n), 16, "C")
			return
		case "h2":
			l.heading(text(n), 12, "L")
			return
		case "div":
			if hasClass(n, "metadata") {
				l.metadata(text(n))
				return
			}
		case "table":
			l.table(collectRows(n))
			return
		}
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		l.walk(ch)
	}
}

func (l *layout) ensureSpace(h float64) bool {
	_, pageH := l.pdf.GetPageSize()
	_, _, _, bottom := l.pdf.GetMargins()
	if l.pdf.GetY()+h > pageH-bottom {
		l.pdf.AddPage()
		return true
	}
	return false
}

func (l *layout) heading(s string, size float64, align string) {
	l.ensureSpace(size)
	l.pdf.SetFont("Arial", "B", size)
	l.pdf.SetTextColor(0x33, 0x33, 0x33)
	l.pdf.CellFormat(0, size*0.6, l.tr(s), "", 1, align, false, 0, "")
	l.pdf.Ln(2)
}

func (l *layout) metadata(s string) {
	l.ensureSpace(8)
	l.pdf.SetFont("Arial", "", 9)
	l.pdf.SetTextColor(0x66, 0x66, 0x66)
	l.pdf.CellFormat(0, 6, l.tr(s), "", 1, "C", false, 0, "")
	l.pdf.Ln(2)
}

func (l *layout) table(rows [][]pdfCell) {
	if len(rows) == 0 {
		return
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	pageW, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	colW := (pageW - left - right) / float64(cols)
	const rowH = 6.0

	var header []pdfCell
	if len(rows[0]) > 0 && rows[0][0].header {
		header = rows[0]
	}
	l.pdf.Ln(2)
	for i, r := range rows {
		if l.ensureSpace(rowH) && header != nil && i > 0 {
			l.row(header, colW, rowH)
		}
		l.row(r, colW, rowH)
	}
	l.pdf.Ln(4)
}

func (l *layout) row(cells []pdfCell, colW, h float64) {
	l.pdf.SetDrawColor(borderGray.r, borderGray.g, borderGray.b)
	for _, c := range cells {
		fill := false
		textColor := rgb{0, 0, 0}
		style := ""
		if c.header {
			style = "B"
			fill = true
			l.pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
		}
		if cc, ok := classColors[c.class]; ok {
			fill = true
			l.pdf.SetFillColor(cc.fill.r, cc.fill.g, cc.fill.b)
			textColor = cc.text
		}
		l.pdf.SetFont("Arial", style, 8)
		l.pdf.SetTextColor(textColor.r, textColor.g, textColor.b)
		l.pdf.CellFormat(colW, h, l.fit(l.tr(c.text), colW-2), "1", 0, "C", fill, 0, "")
	}
	l.pdf.Ln(h)
}

// fit tronque le texte à la largeur de la cellule.
func (l *layout) fit(s string, w float64) string {
	if l.pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && l.pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func collectRows(table *html.Node) [][]pdfCell {
	var rows [][]pdfCell
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []pdfCell
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
					continue
				}
				row = append(row, pdfCell{text: text(c), class: attr(c, "class"), header: c.Data == "th"})
			}
			rows = append(rows, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(table)
	return rows
}

func text(n *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
