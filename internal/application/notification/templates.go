package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const passwordResetHTML = `<p>Hi {{.Username}},</p>
<p>We received a request to reset your password. The link below is valid for {{.ValidFor}}.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`

const passwordResetText = `Hi {{.Username}},

We received a request to reset your password. Open the link below within {{.ValidFor}}:

{{.Link}}

If you did not ask for this, you can ignore this email.
`

const orderConfirmationHTML = `<p>Hi {{.Username}},</p>
<p>Thank you for your order <strong>{{.OrderNumber}}</strong>. Current status: {{.Status}}.</p>
<table>
{{- range .Lines}}
<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{.Subtotal}}</td></tr>
{{- end}}
</table>
<p>Total: <strong>{{.Total}}</strong></p>
<p>Shipping to: {{.ShippingAddress}}</p>`

const orderConfirmationText = `Hi {{.Username}},

Thank you for your order {{.OrderNumber}}. Current status: {{.Status}}.
{{range .Lines}}
- {{.Name}} x{{.Quantity}}: {{.Subtotal}}
{{- end}}

Total: {{.Total}}
Shipping to: {{.ShippingAddress}}
`

var (
	passwordResetTmpl = template{
		html: htmltemplate.Must(htmltemplate.New("password_reset").Parse(passwordResetHTML)),
		text: texttemplate.Must(texttemplate.New("password_reset").Parse(passwordResetText)),
	}
	orderConfirmationTmpl = template{
		html: htmltemplate.Must(htmltemplate.New("order_confirmation").Parse(orderConfirmationHTML)),
		text: texttemplate.Must(texttemplate.New("order_confirmation").Parse(orderConfirmationText)),
	}
)

type template struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func (t template) render(to, subject string, data any) (Message, error) {
	var htmlBuf, textBuf bytes.Buffer
	if err := t.html.Execute(&htmlBuf, data); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	if err := t.text.Execute(&textBuf, data); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	return Message{To: to, Subject: subject, HTML: htmlBuf.String(), Text: textBuf.String()}, nil
}

// Renderer builds the transactional emails
type Renderer struct {
	frontendURL string
	currency    string
	printer     *message.Printer
	caser       cases.Caser
}

// NewRenderer creates a renderer. Amounts are formatted for lang.
func NewRenderer(frontendURL, currency string, lang language.Tag) *Renderer {
	return &Renderer{
		frontendURL: strings.TrimRight(frontendURL, "/"),
		currency:    strings.ToUpper(currency),
		printer:     message.NewPrinter(lang),
		caser:       cases.Title(lang),
	}
}

// ResetLink is the frontend page that accepts a reset token
func (r *Renderer) ResetLink(token string) string {
	return r.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

// PasswordReset renders the reset email
func (r *Renderer) PasswordReset(to, username, token string, validFor time.Duration) (Message, error) {
	return passwordResetTmpl.render(to, "Reset your password", map[string]any{
		"Username": username,
		"Link":     r.ResetLink(token),
		"ValidFor": validFor.String(),
	})
}

// OrderLine is one product line of a confirmation email
type OrderLine struct {
	Name     string
	Quantity int
	Subtotal decimal.Decimal
}

// OrderConfirmation holds what the confirmation email shows
type OrderConfirmation struct {
	OrderNumber     string
	Status          string
	Total           decimal.Decimal
	ShippingAddress string
	Lines           []OrderLine
}

// OrderConfirmation renders the confirmation email for a placed order
func (r *Renderer) OrderConfirmation(to, username string, o OrderConfirmation) (Message, error) {
	type line struct {
		Name     string
		Quantity int
		Subtotal string
	}
	lines := make([]line, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, line{Name: l.Name, Quantity: l.Quantity, Subtotal: r.Amount(l.Subtotal)})
	}
	return orderConfirmationTmpl.render(to, "Order confirmation "+o.OrderNumber, map[string]any{
		"Username":        username,
		"OrderNumber":     o.OrderNumber,
		"Status":          r.caser.String(strings.ReplaceAll(o.Status, "_", " ")),
		"Total":           r.Amount(o.Total),
		"ShippingAddress": o.ShippingAddress,
		"Lines":           lines,
	})
}

// Amount formats a money amount with locale grouping and the currency code
func (r *Renderer) Amount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return r.printer.Sprintf("%v %s", number.Decimal(f, number.MaxFractionDigits(2)), r.currency)
}
