package receipt

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/obs"
	"github.com/noah-isme/backend-agua/internal/order"
	"github.com/noah-isme/backend-agua/internal/pricing"
)

// Renderer produces printable HTML receipts for committed orders.
type Renderer struct {
	Orders       *order.Service
	BusinessName string
	CurrencyCode string
	tmpl         *template.Template
}

// NewRenderer parses the receipt template once and returns a Renderer.
func NewRenderer(orders *order.Service, businessName, currencyCode string) (*Renderer, error) {
	tmpl, err := template.New("receipt").Funcs(template.FuncMap{
		"money": func(m pricing.Money) string { return FormatMoney(m, currencyCode) },
		"mul":   func(m pricing.Money, q int64) pricing.Money { return m * pricing.Money(q) },
	}).Parse(receiptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	if businessName == "" {
		businessName = "Distribuidora"
	}
	return &Renderer{
		Orders:       orders,
		BusinessName: businessName,
		CurrencyCode: currencyCode,
		tmpl:         tmpl,
	}, nil
}

// FormatMoney renders minor units as a decimal amount with the currency code.
func FormatMoney(m pricing.Money, code string) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s %s%d.%02d", code, sign, m/100, m%100)
}

type receiptData struct {
	BusinessName string
	Order        order.Order
	PrintedAt    time.Time
}

// Render writes the receipt HTML for the given order.
func (r *Renderer) Render(ctx context.Context, orderID int64) ([]byte, error) {
	o, err := r.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, receiptData{
		BusinessName: r.BusinessName,
		Order:        o,
		PrintedAt:    time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	obs.ReceiptsRenderedTotal.Inc()
	return buf.Bytes(), nil
}

// Mount registers the receipt route on the router.
func (r *Renderer) Mount(router chi.Router) {
	router.Get("/orders/{id}/receipt", r.Handle)
}

// Handle handles GET /api/v1/orders/{id}/receipt.
func (r *Renderer) Handle(w http.ResponseWriter, req *http.Request) {
	id, err := common.ParseID(chi.URLParam(req, "id"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	html, err := r.Render(req.Context(), id)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Recibo #{{.Order.ID}}</title>
<style>
body { font-family: monospace; max-width: 380px; margin: 0 auto; }
table { width: 100%; border-collapse: collapse; }
td, th { text-align: left; padding: 2px 4px; }
.right { text-align: right; }
.total { border-top: 1px dashed #000; font-weight: bold; }
header { text-align: center; border-bottom: 1px dashed #000; margin-bottom: 8px; }
</style>
</head>
<body>
<header>
<h2>{{.BusinessName}}</h2>
<p>Recibo #{{.Order.ID}}</p>
<p>{{.Order.CreatedAt.Format "02/01/2006 15:04"}}</p>
{{if .Order.CustomerName}}<p>Cliente: {{.Order.CustomerName}}</p>{{end}}
</header>
<table>
<tr><th>Item</th><th class="right">Qtd</th><th class="right">Unit</th><th class="right">Subtotal</th></tr>
{{range .Order.Items}}
<tr>
<td>{{.ProductName}}{{if .ReturnedBottle}} (vasilhame){{end}}</td>
<td class="right">{{.Quantity}}</td>
<td class="right">{{money .UnitPrice}}</td>
<td class="right">{{money (mul .UnitPrice .Quantity)}}</td>
</tr>
{{end}}
<tr class="total"><td colspan="3">Total</td><td class="right">{{money .Order.Total}}</td></tr>
</table>
<p>Impresso em {{.PrintedAt.Format "02/01/2006 15:04"}}</p>
</body>
</html>`
