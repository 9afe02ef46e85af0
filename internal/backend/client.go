// Package backend содержит REST-клиент внешнего storefront-backend.
// Денежные суммы на проводе — доллары с плавающей точкой (контракт backend);
// внутрь домена они конвертируются в минорные единицы и обратно только здесь.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultTimeout ограничивает каждый запрос к backend.
const DefaultTimeout = 30 * time.Second

// Client — HTTP-клиент storefront-backend. Реализует domain.BackendGateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient создаёт клиент с таймаутом по умолчанию.
// baseURL включает префикс API, например http://localhost:8080/api.
func NewClient(baseURL string, logger *log.Entry) *Client {
	return NewClientWithHTTPClient(baseURL, &http.Client{Timeout: DefaultTimeout}, logger)
}

// NewClientWithHTTPClient создаёт клиент с заданным http.Client (для тестов).
func NewClientWithHTTPClient(baseURL string, httpClient *http.Client, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.New().WithField("component", "backend_client")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

var _ domain.BackendGateway = (*Client)(nil)

type productDTO struct {
	ID            json.Number `json:"id"`
	Name          string      `json:"name"`
	Price         float64     `json:"price"`
	Image         string      `json:"image"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	StockQuantity int32       `json:"stockQuantity"`
}

type orderItemDTO struct {
	ProductName string  `json:"productName"`
	Quantity    int32   `json:"quantity"`
	Price       float64 `json:"price"`
}

type orderDTO struct {
	ID          json.Number    `json:"id"`
	TotalAmount float64        `json:"totalAmount"`
	Email       string         `json:"email"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	Phone       string         `json:"phone"`
	Address     string         `json:"address"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	ZipCode     string         `json:"zipCode"`
	Country     string         `json:"country"`
	Items       []orderItemDTO `json:"items"`
	CreatedAt   string         `json:"createdAt"`
}

type cartItemPayload struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int32   `json:"quantity"`
}

type customerInfoPayload struct {
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
	BillingAddress string `json:"billingAddress,omitempty"`
	BillingCity    string `json:"billingCity,omitempty"`
	BillingState   string `json:"billingState,omitempty"`
	BillingZipCode string `json:"billingZipCode,omitempty"`
	BillingCountry string `json:"billingCountry,omitempty"`
}

type createOrderPayload struct {
	Cart           []cartItemPayload   `json:"cart"`
	Total          float64             `json:"total"`
	CustomerInfo   customerInfoPayload `json:"customerInfo"`
	Timestamp      string              `json:"timestamp"`
	IdempotencyKey string              `json:"idempotencyKey,omitempty"`
}

type orderAckDTO struct {
	Success bool        `json:"success"`
	OrderID json.Number `json:"orderId"`
	Message string      `json:"message"`
}

type intentAckDTO struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"clientSecret"`
	Message      string `json:"message"`
}

type sessionAckDTO struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Message string `json:"message"`
}

type sessionStatusDTO struct {
	SessionID     string      `json:"sessionId"`
	OrderID       json.Number `json:"orderId"`
	PaymentStatus string      `json:"paymentStatus"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// MinorFromDollars переводит долларовую сумму провода в минорные единицы.
func MinorFromDollars(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

// DollarsFromMinor переводит минорные единицы в долларовую сумму провода.
func DollarsFromMinor(minor int64) float64 {
	return float64(minor) / 100
}

// Products возвращает весь каталог.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var dtos []productDTO
	if err := c.getJSON(ctx, "/products", &dtos); err != nil {
		return nil, err
	}
	return productsFromDTO(dtos), nil
}

// ProductsByCategory возвращает товары одной категории.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var dtos []productDTO
	path := "/products/category/" + url.PathEscape(category)
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	return productsFromDTO(dtos), nil
}

// SearchProducts ищет товары по строке запроса.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	var dtos []productDTO
	path := "/products/search?q=" + url.QueryEscape(query)
	if err := c.getJSON(ctx, path, &dtos); err != nil {
		return nil, err
	}
	return productsFromDTO(dtos), nil
}

// Categories возвращает список категорий каталога.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Order возвращает детали заказа по идентификатору.
func (c *Client) Order(ctx context.Context, orderID string) (domain.Order, error) {
	var dto orderDTO
	if err := c.getJSON(ctx, "/orders/"+url.PathEscape(orderID), &dto); err != nil {
		return domain.Order{}, err
	}
	return orderFromDTO(dto), nil
}

// CreateOrder отправляет черновик заказа на backend.
func (c *Client) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.OrderAck, error) {
	payload := createOrderPayload{
		Cart:           make([]cartItemPayload, 0, len(draft.Items)),
		Total:          DollarsFromMinor(draft.TotalMinor),
		CustomerInfo:   customerPayload(draft.Customer),
		Timestamp:      draft.Timestamp.UTC().Format(time.RFC3339),
		IdempotencyKey: draft.IdempotencyKey,
	}
	for _, item := range draft.Items {
		payload.Cart = append(payload.Cart, cartItemPayload{
			ID:       item.ProductID,
			Name:     item.Name,
			Price:    DollarsFromMinor(item.PriceMinor),
			Quantity: item.Qty,
		})
	}

	var dto orderAckDTO
	if err := c.postJSON(ctx, "/orders", payload, &dto); err != nil {
		return domain.OrderAck{}, err
	}
	return domain.OrderAck{Success: dto.Success, OrderID: dto.OrderID.String(), Message: dto.Message}, nil
}

// PaymentConfig возвращает клиентскую конфигурацию платёжного провайдера.
func (c *Client) PaymentConfig(ctx context.Context) (domain.PaymentConfig, error) {
	var dto struct {
		PublishableKey string `json:"publishableKey"`
	}
	if err := c.getJSON(ctx, "/payments/config", &dto); err != nil {
		return domain.PaymentConfig{}, err
	}
	return domain.PaymentConfig{PublishableKey: dto.PublishableKey}, nil
}

// CreatePaymentIntent создаёт payment intent для карточной оплаты.
func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string, amountMinor int64, currency string) (domain.IntentAck, error) {
	payload := map[string]interface{}{
		"orderId":  orderID,
		"amount":   DollarsFromMinor(amountMinor),
		"currency": currency,
	}
	var dto intentAckDTO
	if err := c.postJSON(ctx, "/payments/create-payment-intent", payload, &dto); err != nil {
		return domain.IntentAck{}, err
	}
	return domain.IntentAck{Success: dto.Success, ClientSecret: dto.ClientSecret, Message: dto.Message}, nil
}

// CreateCheckoutSession создаёт hosted checkout-сессию.
func (c *Client) CreateCheckoutSession(ctx context.Context, orderID string) (domain.SessionAck, error) {
	payload := map[string]interface{}{"orderId": orderID}
	var dto sessionAckDTO
	if err := c.postJSON(ctx, "/payments/create-checkout-session", payload, &dto); err != nil {
		return domain.SessionAck{}, err
	}
	return domain.SessionAck{Success: dto.Success, URL: dto.URL, Message: dto.Message}, nil
}

// SessionStatus возвращает платёжный статус hosted-сессии.
func (c *Client) SessionStatus(ctx context.Context, sessionID string) (domain.SessionStatus, error) {
	var dto sessionStatusDTO
	if err := c.getJSON(ctx, "/payments/session/"+url.PathEscape(sessionID), &dto); err != nil {
		return domain.SessionStatus{}, err
	}
	return domain.SessionStatus{
		SessionID:     dto.SessionID,
		OrderID:       dto.OrderID.String(),
		PaymentStatus: dto.PaymentStatus,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.apiError(op, resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// apiError извлекает бизнес-сообщение из тела ошибочного ответа, если оно есть.
func (c *Client) apiError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed errorBody
	message := ""
	if json.Unmarshal(raw, &parsed) == nil {
		message = parsed.Message
		if message == "" {
			message = parsed.Error
		}
	}

	c.logger.WithFields(log.Fields{
		"op":     op,
		"status": resp.StatusCode,
	}).Warn("backend request failed")
	return &domain.APIError{Op: op, StatusCode: resp.StatusCode, Message: message}
}

func productsFromDTO(dtos []productDTO) []domain.Product {
	products := make([]domain.Product, 0, len(dtos))
	for _, dto := range dtos {
		products = append(products, domain.Product{
			ID:            dto.ID.String(),
			Name:          dto.Name,
			PriceMinor:    MinorFromDollars(dto.Price),
			Image:         dto.Image,
			Description:   dto.Description,
			Category:      dto.Category,
			StockQuantity: dto.StockQuantity,
		})
	}
	return products
}

func orderFromDTO(dto orderDTO) domain.Order {
	order := domain.Order{
		OrderID:    dto.ID.String(),
		TotalMinor: MinorFromDollars(dto.TotalAmount),
		Email:      dto.Email,
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Phone:      dto.Phone,
		Address:    dto.Address,
		City:       dto.City,
		State:      dto.State,
		ZipCode:    dto.ZipCode,
		Country:    dto.Country,
	}
	for _, item := range dto.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductName:    item.ProductName,
			Qty:            item.Quantity,
			UnitPriceMinor: MinorFromDollars(item.Price),
		})
	}
	if ts, err := time.Parse(time.RFC3339, dto.CreatedAt); err == nil {
		order.CreatedAt = ts
	}
	return order
}

func customerPayload(info domain.CustomerInfo) customerInfoPayload {
	return customerInfoPayload{
		Email:          info.Email,
		FirstName:      info.FirstName,
		LastName:       info.LastName,
		Phone:          info.Phone,
		Address:        info.Address,
		City:           info.City,
		State:          info.State,
		ZipCode:        info.ZipCode,
		Country:        info.Country,
		SameAsBilling:  info.SameAsBilling,
		BillingAddress: info.BillingAddress,
		BillingCity:    info.BillingCity,
		BillingState:   info.BillingState,
		BillingZipCode: info.BillingZipCode,
		BillingCountry: info.BillingCountry,
	}
}
