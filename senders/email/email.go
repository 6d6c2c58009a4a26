// Package email holds the notification formats sent to subscribers.
package email

import (
	_ "embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/fiffu/pricewatch/lib/models"
)

var (
	//go:embed pricedrop.html
	priceDropHTML     string
	priceDropTemplate = template.Must(template.New("pricedrop.html").Parse(priceDropHTML))

	//go:embed restock.html
	restockHTML     string
	restockTemplate = template.Must(template.New("restock.html").Parse(restockHTML))

	//go:embed stockout.html
	stockoutHTML     string
	stockoutTemplate = template.Must(template.New("stockout.html").Parse(stockoutHTML))
)

func mustFillTemplate(tmpl *template.Template, values any) string {
	buf := new(strings.Builder)
	err := tmpl.Execute(buf, values)
	if err != nil {
		return ""
	}
	return buf.String()
}

// Format is a composed email ready for a sender.
type Format interface {
	Subject() string
	Body() string
}

type PriceDropFormat struct {
	Product        *models.Product
	Event          models.PriceDrop
	Currency       string
	UnsubscribeURL string
}

func (ef *PriceDropFormat) Subject() string {
	return fmt.Sprintf("Price drop: %s", ef.Product.ProductName)
}

func (ef *PriceDropFormat) Body() string {
	return mustFillTemplate(priceDropTemplate, ef)
}

// Discount and the price accessors round at presentation time only.
func (ef *PriceDropFormat) Discount() string {
	return fmt.Sprintf("%.1f", ef.Event.PercentageDiscount())
}

func (ef *PriceDropFormat) NewPrice() string {
	return formatPrice(ef.Event.Current, ef.Currency)
}

func (ef *PriceDropFormat) PreviousPrice() string {
	return formatPrice(ef.Event.Previous, ef.Currency)
}

type RestockFormat struct {
	Product        *models.Product
	UnsubscribeURL string
}

func (ef *RestockFormat) Subject() string {
	return fmt.Sprintf("Back in stock: %s", ef.Product.ProductName)
}

func (ef *RestockFormat) Body() string {
	return mustFillTemplate(restockTemplate, ef)
}

type StockoutFormat struct {
	Product        *models.Product
	UnsubscribeURL string
}

func (ef *StockoutFormat) Subject() string {
	return fmt.Sprintf("Out of stock: %s", ef.Product.ProductName)
}

func (ef *StockoutFormat) Body() string {
	return mustFillTemplate(stockoutTemplate, ef)
}

var currencySymbols = map[string]string{
	"GBP": "£",
	"USD": "$",
	"EUR": "€",
}

func formatPrice(value float64, currency string) string {
	if symbol, ok := currencySymbols[currency]; ok {
		return fmt.Sprintf("%s%.2f", symbol, value)
	}
	return fmt.Sprintf("%.2f %s", value, currency)
}
