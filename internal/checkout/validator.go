// Package checkout реализует клиентскую оркестрацию оформления заказа:
// валидацию формы, машину состояний checkout, платёжные стратегии и
// обработку параметров возврата.
package checkout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Сообщения совпадают с теми, что показывает форма.
const (
	msgFieldRequired = "This field is required"
	msgInvalidEmail  = "Please enter a valid email"
)

// Базовый шаблон local@domain.tld; без претензии на полный RFC 5322.
var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// requiredFields перечисляет обязательные поля формы в порядке отображения.
var requiredFields = []string{
	"email", "firstName", "lastName", "address", "city", "state", "zipCode", "country",
}

// billingFields обязательны только при раздельном платёжном адресе.
var billingFields = []string{
	"billingAddress", "billingCity", "billingState", "billingZipCode", "billingCountry",
}

func fieldValue(info *domain.CustomerInfo, field string) string {
	switch field {
	case "email":
		return info.Email
	case "firstName":
		return info.FirstName
	case "lastName":
		return info.LastName
	case "address":
		return info.Address
	case "city":
		return info.City
	case "state":
		return info.State
	case "zipCode":
		return info.ZipCode
	case "country":
		return info.Country
	case "billingAddress":
		return info.BillingAddress
	case "billingCity":
		return info.BillingCity
	case "billingState":
		return info.BillingState
	case "billingZipCode":
		return info.BillingZipCode
	case "billingCountry":
		return info.BillingCountry
	default:
		return ""
	}
}

// ValidateCustomer проверяет форму и возвращает поле -> сообщение об ошибке.
// Пустой результат означает валидную форму.
func ValidateCustomer(info domain.CustomerInfo) map[string]string {
	errs := make(map[string]string)

	fields := requiredFields
	if !info.SameAsBilling {
		fields = append(append([]string{}, requiredFields...), billingFields...)
	}

	for _, field := range fields {
		if strings.TrimSpace(fieldValue(&info, field)) == "" {
			errs[field] = msgFieldRequired
		}
	}

	if info.Email != "" && !emailPattern.MatchString(info.Email) {
		errs["email"] = msgInvalidEmail
	}

	return errs
}

// IsValid сообщает, пройдёт ли форма полную валидацию. Намеренно опирается
// на тот же предикат, что и ValidateCustomer, чтобы состояние кнопки отправки
// не расходилось с проверкой при submit.
func IsValid(info domain.CustomerInfo) bool {
	return len(ValidateCustomer(info)) == 0
}

// ValidationError блокирует отправку формы; содержит ошибки по полям.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form validation failed: %d invalid fields", len(e.Fields))
}
