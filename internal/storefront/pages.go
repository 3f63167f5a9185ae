package storefront

import (
	"html/template"
	"io"

	"checkout-be/internal/callback"
	"checkout-be/internal/catalog"
	"checkout-be/internal/payment"

	"github.com/shopspring/decimal"
)

type ProductView struct {
	catalog.Product
	PriceLabel string
	Selected   bool
}

type IndexView struct {
	Products []ProductView
	Selected *ProductView
	State    State
}

type CallbackView struct {
	State     callback.State
	Amount    string
	Reference string
	Email     string
	Reason    string
}

func NewIndexView(products []catalog.Product, currency string, s State) IndexView {
	view := IndexView{State: s}
	for _, p := range products {
		pv := ProductView{
			Product:    p,
			PriceLabel: payment.FormatMoney(currency, decimal.NewFromInt(p.Price)),
			Selected:   p.ID == s.SelectedID,
		}
		view.Products = append(view.Products, pv)
	}
	for i := range view.Products {
		if view.Products[i].Selected {
			view.Selected = &view.Products[i]
		}
	}
	return view
}

func NewCallbackView(o callback.Outcome) CallbackView {
	view := CallbackView{State: o.State, Reason: o.Reason}
	if o.State == callback.StateSuccess && o.Record != nil {
		view.Amount = payment.FormatMoney(o.Record.Currency, o.Record.Amount)
		view.Reference = o.Record.Reference
		view.Email = o.Record.Customer.Email
	}
	return view
}

type Pages struct {
	index    *template.Template
	callback *template.Template
}

func NewPages() *Pages {
	return &Pages{
		index:    template.Must(template.New("index").Parse(layout + indexTpl)),
		callback: template.Must(template.New("callback").Parse(layout + callbackTpl)),
	}
}

func (p *Pages) Index(w io.Writer, view IndexView) error {
	return p.index.ExecuteTemplate(w, "layout", view)
}

func (p *Pages) Callback(w io.Writer, view CallbackView) error {
	return p.callback.ExecuteTemplate(w, "layout", view)
}

const layout = `{{define "layout"}}<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Checkout</title>
  <style>
    body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Arial; background: #f9fafb; padding: 32px; }
    .box { max-width: 960px; margin: 0 auto; }
    .card { background: #fff; border: 2px solid #e5e7eb; border-radius: 10px; padding: 20px; margin-bottom: 12px; }
    .card.selected { border-color: #16a34a; }
    .error { background: #fee2e2; border: 1px solid #f87171; color: #b91c1c; padding: 12px; border-radius: 6px; }
    .btn { display: inline-block; padding: 12px 16px; border-radius: 8px; background: #16a34a; color: #fff; text-decoration: none; border: 0; }
    .btn.fail { background: #dc2626; }
  </style>
</head>
<body><div class="box">{{template "content" .}}</div></body>
</html>{{end}}`

const indexTpl = `{{define "content"}}
<h1>Paystack Payment - Kenya Shillings</h1>
{{if .State.Error}}<div class="error">{{.State.Error}}</div>{{end}}
<h2>Select Product</h2>
{{range .Products}}
<a href="/?product={{.ID}}" style="color:inherit;text-decoration:none">
  <div class="card{{if .Selected}} selected{{end}}">
    <span style="font-size:2em">{{.Image}}</span>
    <h3>{{.Name}}</h3>
    <p>{{.Description}}</p>
    <strong>{{.PriceLabel}}</strong>
  </div>
</a>
{{end}}
<h2>Payment Details</h2>
<div class="card">
{{with .Selected}}
  <form method="POST" action="/checkout">
    <input type="hidden" name="product_id" value="{{.ID}}">
    <label>Email Address
      <input type="email" name="email" value="{{$.State.Email}}" placeholder="your.email@example.com" required>
    </label>
    <button class="btn" type="submit"{{if $.State.Loading}} disabled{{end}}>{{if $.State.Loading}}Processing...{{else}}Pay {{.PriceLabel}}{{end}}</button>
  </form>
{{else}}
  <p>Select a product to continue</p>
{{end}}
</div>
{{end}}`

const callbackTpl = `{{define "content"}}
<div class="card" style="text-align:center">
{{if eq .State "success"}}
  <h1 style="color:#16a34a">Payment Successful!</h1>
  <p><strong>Amount:</strong> {{.Amount}}</p>
  <p><strong>Reference:</strong> {{.Reference}}</p>
  <p><strong>Email:</strong> {{.Email}}</p>
  <a class="btn" href="/">Make Another Payment</a>
{{else if eq .State "failed"}}
  <h1 style="color:#dc2626">Payment Failed</h1>
  <p>There was an issue processing your payment. Please try again.</p>
  <a class="btn fail" href="/">Try Again</a>
{{else}}
  <p>Verifying payment...</p>
{{end}}
</div>
{{end}}`
