package render

import (
	"bytes"
	"html/template"
)

const statementHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.Number}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 32px;
      font-family: "Helvetica Neue", Arial, sans-serif;
      color: #111827;
      background: #ffffff;
    }
    .statement {
      max-width: 820px;
      margin: 0 auto 40px;
      border: 1px solid #e5e7eb;
      border-radius: 8px;
      padding: 24px;
      page-break-after: always;
    }
    .header {
      display: flex;
      justify-content: space-between;
      border-bottom: 2px solid #111827;
      padding-bottom: 16px;
      margin-bottom: 24px;
    }
    .meta { text-align: right; font-size: 14px; }
    .meta .label {
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.04em;
      font-size: 11px;
    }
    table { width: 100%; border-collapse: collapse; font-size: 14px; }
    th, td { padding: 8px 6px; text-align: left; }
    thead th { border-bottom: 1px solid #e5e7eb; color: #6b7280; }
    td.amount, th.amount { text-align: right; }
    .totals { margin-top: 16px; margin-left: auto; width: 280px; font-size: 14px; }
    .totals div { display: flex; justify-content: space-between; padding: 4px 0; }
    .totals .grand { border-top: 1px solid #111827; font-weight: 600; }
    .informational {
      margin-top: 12px;
      font-size: 12px;
      color: #6b7280;
    }
    .footer {
      margin-top: 24px;
      font-size: 12px;
      color: #6b7280;
      text-align: center;
    }
  </style>
</head>
<body>
{{- $root := . }}
{{- range .Statements }}
  <div class="statement">
    <div class="header">
      <div>
        <h2>{{$root.Facility.Name}}</h2>
        <div>{{$root.Facility.Address}}</div>
      </div>
      <div class="meta">
        <div class="label">{{.Title}}</div>
        <div>Invoice {{$root.Invoice.Number}}</div>
        <div>Issued {{$root.Invoice.IssuedDate}}</div>
        <div>Due {{$root.Invoice.DueDate}}</div>
        <div>Period {{$root.Invoice.PeriodStart}} to {{$root.Invoice.PeriodEnd}}</div>
      </div>
    </div>
    <div>
      <strong>{{.PayerName}}</strong>
      {{- if .PayerAddress }}<div>{{.PayerAddress}}</div>{{ end }}
      <div>Portion: {{.PortionPct}}%</div>
    </div>
    {{- if not .Informational }}
    <table>
      <thead>
        <tr><th>Description</th><th>Type</th><th class="amount">Qty</th><th class="amount">Unit</th><th class="amount">Amount</th></tr>
      </thead>
      <tbody>
        {{- range $root.Items }}
        <tr>
          <td>{{.Description}}</td>
          <td>{{.ItemType}}</td>
          <td class="amount">{{.Quantity}}</td>
          <td class="amount">{{.UnitPrice}}</td>
          <td class="amount">{{.Total}}</td>
        </tr>
        {{- end }}
      </tbody>
    </table>
    {{- end }}
    <div class="totals">
      <div><span>Amount due</span><span>{{.AmountDue}}</span></div>
      {{- if .Paid }}
      <div><span>Paid</span><span>{{.Paid}}</span></div>
      {{- end }}
      {{- if .Balance }}
      <div class="grand"><span>Balance</span><span>{{.Balance}}</span></div>
      {{- end }}
    </div>
    {{- if .Informational }}
    <div class="informational">
      This statement is informational. Payments are tracked against the full
      invoice; no separate balance is maintained for this portion.
    </div>
    {{- end }}
    <div class="footer">
      {{- range $root.Facility.FooterLines }}
      <div>{{.}}</div>
      {{- end }}
    </div>
  </div>
{{- end }}
</body>
</html>`

var statementTmpl = template.Must(template.New("statement").Parse(statementHTMLTemplate))

// HTMLRenderer renders statements with the embedded template.
type HTMLRenderer struct{}

// NewRenderer constructs the HTML renderer.
func NewRenderer() Renderer {
	return HTMLRenderer{}
}

// RenderHTML executes the statement template.
func (HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	var buf bytes.Buffer
	if err := statementTmpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}
