// Package cart реализует хранилище корзины активной сессии витрины.
package cart

import (
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store — упорядоченная in-memory коллекция позиций корзины.
// Корзина принадлежит одному логическому владельцу; мутации только через
// методы Store.
type Store struct {
	mu    sync.RWMutex
	items []domain.LineItem
}

// NewStore возвращает пустую корзину.
func NewStore() *Store {
	return &Store{}
}

// Add добавляет товар в корзину. Если товар уже есть, количества
// складываются и ограничиваются остатком. Количество < 1 — ошибка вызова:
// привести его к допустимому обязана вызывающая сторона.
func (s *Store) Add(product domain.Product, qty int32) error {
	if qty < 1 {
		return domain.ErrQuantityInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	limit := product.StockLimit()
	for i := range s.items {
		if s.items[i].ProductID == product.ID {
			merged := s.items[i].Qty + qty
			if merged > limit {
				merged = limit
			}
			s.items[i].Qty = merged
			return nil
		}
	}

	if qty > limit {
		qty = limit
	}
	s.items = append(s.items, domain.LineItem{
		ProductID:  product.ID,
		Name:       product.Name,
		PriceMinor: product.PriceMinor,
		Qty:        qty,
		StockLimit: limit,
		AddedAt:    time.Now().UTC(),
	})
	return nil
}

// UpdateQuantity выставляет количество позиции. Количество <= 0 эквивалентно
// удалению; значение выше остатка ограничивается остатком.
func (s *Store) UpdateQuantity(productID string, qty int32) {
	if qty <= 0 {
		s.Remove(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if s.items[i].StockLimit > 0 && qty > s.items[i].StockLimit {
			qty = s.items[i].StockLimit
		}
		s.items[i].Qty = qty
		return
	}
}

// Remove убирает позицию из корзины. Удаление отсутствующей позиции — no-op.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Clear опустошает корзину; вызывается после подтверждённой оплаты.
// Очистка пустой корзины — no-op.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// TotalMinor возвращает сумму корзины в минимальных денежных единицах.
// Результат детерминирован и не зависит от порядка позиций.
func (s *Store) TotalMinor() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for i := range s.items {
		total += s.items[i].SubtotalMinor()
	}
	return total
}

// Items возвращает копию позиций в порядке добавления.
func (s *Store) Items() []domain.LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Возвращаем копию, чтобы избежать непредсказуемых мутаций извне.
	out := make([]domain.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Count возвращает суммарное количество единиц товара в корзине.
func (s *Store) Count() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int32
	for i := range s.items {
		n += s.items[i].Qty
	}
	return n
}

// IsEmpty сообщает, пуста ли корзина.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0
}
