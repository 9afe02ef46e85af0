package domain

import "time"

// DefaultStockLimit применяется, когда каталог не сообщает остаток по товару.
const DefaultStockLimit int32 = 999

// Product описывает товар каталога, полученный из внешнего API.
type Product struct {
	// ID — внешний идентификатор товара в каталоге.
	ID string
	// Name — отображаемое название товара.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах (центы).
	PriceMinor int64
	// Image — URL изображения товара.
	Image string
	// Description — описание товара.
	Description string
	// Category — категория каталога.
	Category string
	// StockQuantity — доступный остаток; 0 означает, что остаток неизвестен.
	StockQuantity int32
}

// StockLimit возвращает верхнюю границу количества для позиции корзины.
func (p *Product) StockLimit() int32 {
	if p.StockQuantity <= 0 {
		return DefaultStockLimit
	}
	return p.StockQuantity
}

// LineItem представляет одну позицию корзины: товар и его количество.
type LineItem struct {
	// ProductID — внешний идентификатор товара.
	ProductID string
	// Name — название товара на момент добавления.
	Name string
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
	// Qty — количество единиц; инвариант 1 <= Qty <= StockLimit.
	Qty int32
	// StockLimit — максимум, доступный к покупке.
	StockLimit int32
	// AddedAt фиксирует момент добавления позиции в корзину.
	AddedAt time.Time
}

// SubtotalMinor возвращает стоимость позиции: цена за единицу * количество.
func (li *LineItem) SubtotalMinor() int64 {
	return int64(li.Qty) * li.PriceMinor
}

// Validate проверяет инварианты позиции корзины и возвращает список замечаний.
func (li *LineItem) Validate() []error {
	var errs []error

	if li.ProductID == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if li.Qty < 1 {
		errs = append(errs, ErrQuantityInvalid)
	}
	if li.StockLimit > 0 && li.Qty > li.StockLimit {
		errs = append(errs, ErrQuantityExceedsStock)
	}
	if li.PriceMinor < 0 {
		errs = append(errs, ErrPriceInvalid)
	}

	return errs
}
