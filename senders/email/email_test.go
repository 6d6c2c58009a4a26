package email

import (
	"testing"

	"github.com/fiffu/pricewatch/lib/models"
	"github.com/stretchr/testify/assert"
)

func testProduct() *models.Product {
	return &models.Product{
		ProductID:   1,
		ProductName: "Corduroy Jacket",
		ProductURL:  "https://www.asos.com/jackets/prd/123456",
		ImageURL:    "https://images.example.com/jacket.jpg",
		WebsiteName: "asos",
	}
}

func TestPriceDropFormat(t *testing.T) {
	format := &PriceDropFormat{
		Product:        testProduct(),
		Event:          models.PriceDrop{Previous: 50.00, Current: 40.00},
		Currency:       "GBP",
		UnsubscribeURL: "http://localhost:8080/unsubscribe/tok",
	}

	assert.Equal(t, "Price drop: Corduroy Jacket", format.Subject())

	body := format.Body()
	assert.Contains(t, body, "20.0")
	assert.Contains(t, body, "£40.00")
	assert.Contains(t, body, "£50.00")
	assert.Contains(t, body, "https://www.asos.com/jackets/prd/123456")
	assert.Contains(t, body, "http://localhost:8080/unsubscribe/tok")
}

func TestPriceDropDiscountRoundsAtPresentation(t *testing.T) {
	format := &PriceDropFormat{
		Product:  testProduct(),
		Event:    models.PriceDrop{Previous: 29.99, Current: 19.99},
		Currency: "GBP",
	}
	assert.Equal(t, "33.3", format.Discount())
}

func TestRestockFormat(t *testing.T) {
	format := &RestockFormat{Product: testProduct(), UnsubscribeURL: "http://localhost:8080/unsubscribe/tok"}
	assert.Equal(t, "Back in stock: Corduroy Jacket", format.Subject())

	body := format.Body()
	assert.Contains(t, body, "Corduroy Jacket")
	assert.Contains(t, body, "http://localhost:8080/unsubscribe/tok")
}

func TestStockoutFormat(t *testing.T) {
	format := &StockoutFormat{Product: testProduct(), UnsubscribeURL: "http://localhost:8080/unsubscribe/tok"}
	assert.Equal(t, "Out of stock: Corduroy Jacket", format.Subject())
	assert.Contains(t, format.Body(), "Corduroy Jacket")
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "£40.00", formatPrice(40, "GBP"))
	assert.Equal(t, "$19.99", formatPrice(19.99, "USD"))
	assert.Equal(t, "€5.50", formatPrice(5.5, "EUR"))
	assert.Equal(t, "120.00 SEK", formatPrice(120, "SEK"))
}
