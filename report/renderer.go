package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockbook/stockbook/internal/ar"
	"github.com/stockbook/stockbook/internal/sales"
)

const (
	invoiceTemplate   = "invoice.html"
	statementTemplate = "statement.html"
)

// Renderer produces the HTML documents sent to the PDF converter.
type Renderer struct {
	templates *template.Template
	printer   *message.Printer
}

// NewRenderer parses the document templates found under templates/documents in fsys.
func NewRenderer(fsys fs.FS, tag language.Tag) (*Renderer, error) {
	r := &Renderer{printer: message.NewPrinter(tag)}
	tmpl, err := template.New("documents").Funcs(template.FuncMap{
		"money": r.Money,
		"date":  formatDate,
	}).ParseFS(fsys, "templates/documents/*.html")
	if err != nil {
		return nil, fmt.Errorf("report: parse templates: %w", err)
	}
	r.templates = tmpl
	return r, nil
}

// Money formats an amount with two decimals and locale digit grouping.
func (r *Renderer) Money(d decimal.Decimal) string {
	rounded := d.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return rounded.StringFixed(2)
	}
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + r.printer.Sprintf("%d", n) + "." + frac
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}

// RenderInvoice renders the invoice document.
func (r *Renderer) RenderInvoice(doc *sales.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("report: render invoice: nil document")
	}
	return r.execute(invoiceTemplate, doc)
}

// RenderStatement renders a client statement.
func (r *Renderer) RenderStatement(st *ar.Statement) (string, error) {
	if st == nil {
		return "", fmt.Errorf("report: render statement: nil statement")
	}
	return r.execute(statementTemplate, st)
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("report: execute %s: %w", name, err)
	}
	return buf.String(), nil
}
