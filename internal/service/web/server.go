package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/backend"
	"github.com/vladislavdragonenkov/storefront/internal/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/settings"
)

// ConfigInfo — снимок конфигурации, отдаваемый клиенту для интроспекции.
type ConfigInfo struct {
	BaseURL        string `json:"baseURL"`
	Environment    string `json:"environment"`
	Version        string `json:"version"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// Server — HTTP-поверхность витрины. Обработчики тонкие: вся логика живёт
// в корзине, оркестраторе и реконсилере, здесь только JSON-склейка.
type Server struct {
	catalog  *Catalog
	sessions *SessionManager
	settings *settings.Store
	config   ConfigInfo
	logger   *log.Entry
}

// NewServer создает HTTP-поверхность витрины.
func NewServer(catalog *Catalog, sessions *SessionManager, settingsStore *settings.Store, config ConfigInfo, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.New().WithField("component", "web")
	}
	return &Server{
		catalog:  catalog,
		sessions: sessions,
		settings: settingsStore,
		config:   config,
		logger:   logger,
	}
}

// Routes собирает маршруты витрины.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/storefront/products", s.handleProducts)
	mux.HandleFunc("GET /api/storefront/products/categories", s.handleCategories)

	mux.HandleFunc("GET /api/storefront/cart", s.handleCartGet)
	mux.HandleFunc("POST /api/storefront/cart/items", s.handleCartAdd)
	mux.HandleFunc("PUT /api/storefront/cart/items/{id}", s.handleCartUpdate)
	mux.HandleFunc("DELETE /api/storefront/cart/items/{id}", s.handleCartRemove)

	mux.HandleFunc("GET /api/storefront/checkout", s.handleCheckoutState)
	mux.HandleFunc("POST /api/storefront/checkout", s.handleCheckoutSubmit)
	mux.HandleFunc("POST /api/storefront/checkout/hosted", s.handleHosted)
	mux.HandleFunc("POST /api/storefront/checkout/card", s.handleCard)
	mux.HandleFunc("POST /api/storefront/checkout/cancel", s.handleCancelRedirect)
	mux.HandleFunc("POST /api/storefront/checkout/reset", s.handleCheckoutReset)

	mux.HandleFunc("GET /api/storefront/return", s.handleReturn)

	mux.HandleFunc("GET /api/storefront/config", s.handleConfig)
	mux.HandleFunc("GET /api/storefront/theme", s.handleThemeGet)
	mux.HandleFunc("PUT /api/storefront/theme", s.handleThemeSet)

	return mux
}

type productJSON struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Image         string  `json:"image,omitempty"`
	Description   string  `json:"description,omitempty"`
	Category      string  `json:"category,omitempty"`
	StockQuantity int32   `json:"stockQuantity"`
}

type cartItemJSON struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int32   `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type cartJSON struct {
	Items []cartItemJSON `json:"items"`
	Total float64        `json:"total"`
	Count int32          `json:"count"`
}

type orderItemJSON struct {
	ProductName string  `json:"productName"`
	Quantity    int32   `json:"quantity"`
	Price       float64 `json:"price"`
}

type orderJSON struct {
	ID          string          `json:"id"`
	TotalAmount float64         `json:"totalAmount"`
	Email       string          `json:"email"`
	FirstName   string          `json:"firstName"`
	LastName    string          `json:"lastName"`
	Items       []orderItemJSON `json:"items,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	Synthesized bool            `json:"synthesized,omitempty"`
}

type checkoutJSON struct {
	Phase          string     `json:"phase"`
	OrderID        string     `json:"orderId,omitempty"`
	FormError      string     `json:"formError,omitempty"`
	PaymentError   string     `json:"paymentError,omitempty"`
	PublishableKey string     `json:"publishableKey,omitempty"`
	SettledOrder   *orderJSON `json:"settledOrder,omitempty"`
}

type customerInfoJSON struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zipCode"`
	Country        string `json:"country"`
	SameAsBilling  bool   `json:"sameAsBilling"`
	BillingAddress string `json:"billingAddress"`
	BillingCity    string `json:"billingCity"`
	BillingState   string `json:"billingState"`
	BillingZipCode string `json:"billingZipCode"`
	BillingCountry string `json:"billingCountry"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []domain.Product
		err      error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		products, err = s.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	case r.URL.Query().Get("category") != "":
		products, err = s.catalog.ListByCategory(r.Context(), r.URL.Query().Get("category"))
	default:
		products, err = s.catalog.List(r.Context())
	}
	if err != nil {
		s.writeUpstreamError(w, err, "Failed to load products")
		return
	}

	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, productJSON{
			ID:            p.ID,
			Name:          p.Name,
			Price:         backend.DollarsFromMinor(p.PriceMinor),
			Image:         p.Image,
			Description:   p.Description,
			Category:      p.Category,
			StockQuantity: p.StockQuantity,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.catalog.Categories(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err, "Failed to load categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	s.writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)
	s.writeJSON(w, http.StatusOK, cartView(session))
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int32  `json:"quantity"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := s.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			s.writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		s.writeUpstreamError(w, err, "Failed to load product")
		return
	}

	if err := session.Cart.Add(product, req.Quantity); err != nil {
		s.writeError(w, http.StatusBadRequest, domain.UserMessage(err, "Invalid quantity"))
		return
	}
	s.writeJSON(w, http.StatusOK, cartView(session))
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)

	var req struct {
		Quantity int32 `json:"quantity"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	session.Cart.UpdateQuantity(r.PathValue("id"), req.Quantity)
	s.writeJSON(w, http.StatusOK, cartView(session))
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)
	session.Cart.Remove(r.PathValue("id"))
	s.writeJSON(w, http.StatusOK, cartView(session))
}

func (s *Server) handleCheckoutState(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)
	s.writeJSON(w, http.StatusOK, checkoutView(session))
}

func (s *Server) handleCheckoutSubmit(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)

	var req customerInfoJSON
	if !s.decodeBody(w, r, &req) {
		return
	}

	err := session.Checkout.Submit(r.Context(), customerFromJSON(req))
	if err != nil {
		var vErr *checkout.ValidationError
		if errors.As(err, &vErr) {
			s.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"message":     "Validation failed",
				"fieldErrors": vErr.Fields,
			})
			return
		}
		if errors.Is(err, domain.ErrPhaseInvalid) {
			s.writeError(w, http.StatusConflict, "Checkout already in progress")
			return
		}
		// Оркестратор уже перевёл фазу обратно к form и записал сообщение.
		s.writeJSON(w, http.StatusBadGateway, checkoutView(session))
		return
	}
	s.writeJSON(w, http.StatusOK, checkoutView(session))
}

func (s *Server) handleHosted(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)

	redirectURL, err := session.Checkout.BeginHostedCheckout(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrPhaseInvalid) {
			s.writeError(w, http.StatusConflict, "No order awaiting payment")
			return
		}
		s.writeJSON(w, http.StatusBadGateway, checkoutView(session))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"url": redirectURL})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)

	var req struct {
		PaymentMethodID string `json:"paymentMethodId"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	err := session.Checkout.ConfirmCardPayment(r.Context(), domain.PaymentInstrument{PaymentMethodID: req.PaymentMethodID})
	if err != nil {
		if errors.Is(err, domain.ErrPhaseInvalid) {
			s.writeError(w, http.StatusConflict, "No order awaiting payment")
			return
		}
		status := http.StatusBadGateway
		if domain.IsDeclined(err) {
			status = http.StatusPaymentRequired
		}
		s.writeJSON(w, status, checkoutView(session))
		return
	}
	s.writeJSON(w, http.StatusOK, checkoutView(session))
}

func (s *Server) handleCancelRedirect(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)
	session.Checkout.CancelRedirect()
	s.writeJSON(w, http.StatusOK, checkoutView(session))
}

func (s *Server) handleCheckoutReset(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)
	session.Checkout.Reset()
	s.writeJSON(w, http.StatusOK, checkoutView(session))
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.GetOrCreate(w, r)

	outcome := session.Reconciler.Reconcile(r.Context(), r.URL.Query())

	// Исход возврата доводит машину checkout до конца: redirecting → settled
	// при оплате, redirecting → payment_choice при отказе от hosted-страницы.
	switch {
	case outcome.Settled && outcome.Order != nil:
		session.Checkout.SettleFromReturn(*outcome.Order)
	case outcome.Canceled:
		session.Checkout.CancelRedirect()
	}

	resp := map[string]interface{}{
		"settled":    outcome.Settled,
		"canceled":   outcome.Canceled,
		"replayed":   outcome.Replayed,
		"cleanQuery": outcome.CleanQuery.Encode(),
	}
	if outcome.Order != nil {
		resp["order"] = orderView(*outcome.Order)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.config)
}

func (s *Server) handleThemeGet(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"theme":  s.settings.Theme(),
		"themes": settings.Themes(),
	})
}

func (s *Server) handleThemeSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	if err := s.settings.SetTheme(req.Theme); err != nil {
		if errors.Is(err, settings.ErrUnknownTheme) {
			s.writeError(w, http.StatusBadRequest, "Unknown theme")
			return
		}
		s.logger.WithError(err).Error("failed to persist theme")
		s.writeError(w, http.StatusInternalServerError, "Failed to save theme")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"theme": req.Theme})
}

func cartView(session *Session) cartJSON {
	items := session.Cart.Items()
	out := cartJSON{
		Items: make([]cartItemJSON, 0, len(items)),
		Total: backend.DollarsFromMinor(session.Cart.TotalMinor()),
		Count: session.Cart.Count(),
	}
	for _, item := range items {
		out.Items = append(out.Items, cartItemJSON{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     backend.DollarsFromMinor(item.PriceMinor),
			Quantity:  item.Qty,
			Subtotal:  backend.DollarsFromMinor(item.SubtotalMinor()),
		})
	}
	return out
}

func checkoutView(session *Session) checkoutJSON {
	view := checkoutJSON{
		Phase:          string(session.Checkout.Phase()),
		OrderID:        session.Checkout.OrderID(),
		FormError:      session.Checkout.FormError(),
		PaymentError:   session.Checkout.PaymentError(),
		PublishableKey: session.Checkout.PaymentConfig().PublishableKey,
	}
	if order := session.Checkout.SettledOrder(); order != nil {
		v := orderView(*order)
		view.SettledOrder = &v
	}
	return view
}

func orderView(order domain.Order) orderJSON {
	out := orderJSON{
		ID:          order.OrderID,
		TotalAmount: backend.DollarsFromMinor(order.TotalMinor),
		Email:       order.Email,
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Synthesized: order.Synthesized,
	}
	if !order.CreatedAt.IsZero() {
		out.CreatedAt = order.CreatedAt.UTC().Format(time.RFC3339)
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, orderItemJSON{
			ProductName: item.ProductName,
			Quantity:    item.Qty,
			Price:       backend.DollarsFromMinor(item.UnitPriceMinor),
		})
	}
	return out
}

func customerFromJSON(req customerInfoJSON) domain.CustomerInfo {
	return domain.CustomerInfo{
		Email:          req.Email,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		ZipCode:        req.ZipCode,
		Country:        req.Country,
		SameAsBilling:  req.SameAsBilling,
		BillingAddress: req.BillingAddress,
		BillingCity:    req.BillingCity,
		BillingState:   req.BillingState,
		BillingZipCode: req.BillingZipCode,
		BillingCountry: req.BillingCountry,
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Warn("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"message": message})
}

// writeUpstreamError транслирует ошибку backend в ответ клиенту,
// не раскрывая транспортных деталей.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error, fallback string) {
	s.logger.WithError(err).Warn("backend request failed")
	s.writeError(w, http.StatusBadGateway, domain.UserMessage(err, fallback))
}
