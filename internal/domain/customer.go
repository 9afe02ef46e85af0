package domain

// CustomerInfo содержит данные покупателя, вводимые в форме checkout.
// Поля именуются так же, как в JSON-контракте backend.
type CustomerInfo struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string

	// Адрес доставки.
	Address string
	City    string
	State   string
	ZipCode string
	Country string

	// SameAsBilling означает, что платёжный адрес совпадает с адресом доставки.
	SameAsBilling bool

	// Платёжный адрес; обязателен только при SameAsBilling == false.
	BillingAddress string
	BillingCity    string
	BillingState   string
	BillingZipCode string
	BillingCountry string
}
