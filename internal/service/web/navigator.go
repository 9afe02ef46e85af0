package web

import "sync"

// BrowserNavigator фиксирует URL hosted-страницы, на который должен уйти
// браузер. Redirect выполняет не сервер: URL возвращается клиенту в ответе,
// а здесь остаётся след для диагностики.
type BrowserNavigator struct {
	mu      sync.Mutex
	lastURL string
}

// Redirect запоминает целевой URL.
func (n *BrowserNavigator) Redirect(url string) error {
	n.mu.Lock()
	n.lastURL = url
	n.mu.Unlock()
	return nil
}

// LastURL возвращает последний запрошенный redirect.
func (n *BrowserNavigator) LastURL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastURL
}
