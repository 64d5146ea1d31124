// Package render produces printable HTML statements from the split billing
// presentation. Rendering is deterministic: everything it needs arrives in
// the input value.
package render

import (
	invoicedomain "github.com/littleoaks/sprout/internal/invoice/domain"
	settingsdomain "github.com/littleoaks/sprout/internal/settings/domain"
	splitdomain "github.com/littleoaks/sprout/internal/splitbilling/domain"
)

// RenderInput is the deterministic input used for statement rendering.
type RenderInput struct {
	Facility   FacilityView
	Invoice    InvoiceView
	Items      []LineItemView
	Statements []StatementView
}

type FacilityView struct {
	Name        string
	Address     string
	FooterLines []string
}

type InvoiceView struct {
	Number      string
	Status      string
	IssuedDate  string
	DueDate     string
	PeriodStart string
	PeriodEnd   string
	Subtotal    string
	Tax         string
	Discount    string
	Total       string
	AmountPaid  string
	BalanceDue  string
	Notes       string
}

type LineItemView struct {
	Description string
	ItemType    string
	Quantity    int
	UnitPrice   string
	Total       string
}

type StatementView struct {
	Title         string
	PayerName     string
	PayerAddress  string
	PortionPct    int
	AmountDue     string
	Paid          string
	Balance       string
	Informational bool
}

// Renderer renders a statement set to HTML.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

// BuildInput flattens the domain aggregate into the render input.
func BuildInput(inv invoicedomain.Invoice, lines []invoicedomain.LineItem, statements []splitdomain.Statement, settings settingsdomain.FacilitySettings) RenderInput {
	const dateLayout = "Jan 2, 2006"

	items := make([]LineItemView, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineItemView{
			Description: line.Description,
			ItemType:    line.ItemType,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.String(),
			Total:       line.Total.String(),
		})
	}

	views := make([]StatementView, 0, len(statements))
	for _, st := range statements {
		view := StatementView{
			Title:         statementTitle(st.Kind),
			PayerName:     st.PayerName,
			PayerAddress:  st.PayerAddress,
			PortionPct:    st.PortionPct,
			AmountDue:     st.AmountDue.String(),
			Informational: st.Informational,
		}
		if st.DisplayedPaid != nil {
			view.Paid = st.DisplayedPaid.String()
		}
		if st.DisplayedBalance != nil {
			view.Balance = st.DisplayedBalance.String()
		}
		views = append(views, view)
	}

	return RenderInput{
		Facility: FacilityView{
			Name:        settings.FacilityName,
			Address:     settings.FacilityAddress,
			FooterLines: settings.FooterLines,
		},
		Invoice: InvoiceView{
			Number:      inv.InvoiceNumber,
			Status:      string(inv.Status),
			IssuedDate:  inv.IssuedDate.Format(dateLayout),
			DueDate:     inv.DueDate.Format(dateLayout),
			PeriodStart: inv.PeriodStart.Format(dateLayout),
			PeriodEnd:   inv.PeriodEnd.Format(dateLayout),
			Subtotal:    inv.Subtotal.String(),
			Tax:         inv.TaxAmount.String(),
			Discount:    inv.DiscountAmount.String(),
			Total:       inv.Total.String(),
			AmountPaid:  inv.AmountPaid.String(),
			BalanceDue:  inv.BalanceDue.String(),
			Notes:       inv.Notes,
		},
		Items:      items,
		Statements: views,
	}
}

func statementTitle(kind string) string {
	switch kind {
	case splitdomain.StatementParent:
		return "Parent Portion Statement"
	case splitdomain.StatementThirdParty:
		return "Third-Party Statement"
	default:
		return "Invoice"
	}
}
