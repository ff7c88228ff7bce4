package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/placement"
)

// Handler связывает HTTP-слой с workflow размещения заказов.
type Handler struct {
	placements *placement.Service
	logger     *log.Entry
}

// NewHandler создаёт HTTP-обработчики поверх сервиса размещения.
func NewHandler(placements *placement.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http")
	}
	return &Handler{placements: placements, logger: logger}
}

type placeOrderLineRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int32  `json:"qty" binding:"required"`
}

type placeOrderRequest struct {
	CustomerID string                  `json:"customer_id" binding:"required"`
	Lines      []placeOrderLineRequest `json:"lines" binding:"required"`
}

type orderLineResponse struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
}

type orderResponse struct {
	ID          string              `json:"id"`
	CustomerID  string              `json:"customer_id"`
	AmountMinor int64               `json:"amount_minor"`
	CreatedAt   time.Time           `json:"created_at"`
	Lines       []orderLineResponse `json:"lines"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// PlaceOrder обрабатывает POST /v1/orders.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	lines := make([]placement.LineRequest, 0, len(req.Lines))
	for _, line := range req.Lines {
		lines = append(lines, placement.LineRequest{ProductID: line.ProductID, Qty: line.Qty})
	}

	order, err := h.placements.PlaceOrder(c.Request.Context(), req.CustomerID, lines)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// GetOrder обрабатывает GET /v1/orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.placements.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// ListCustomerOrders обрабатывает GET /v1/customers/:id/orders.
func (h *Handler) ListCustomerOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	orders, err := h.placements.ListOrders(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		response = append(response, toOrderResponse(order))
	}
	c.JSON(http.StatusOK, response)
}

// writeError переводит доменную ошибку в HTTP-статус.
func (h *Handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var stockErr *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrQuantityInvalid),
		errors.Is(err, domain.ErrCustomerRequired):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
			"available":  stockErr.Available,
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.WithError(err).Error("unexpected error in http handler")
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func toOrderResponse(order domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ID:         line.ID,
			ProductID:  line.ProductID,
			PriceMinor: line.PriceMinor,
			Qty:        line.Qty,
		})
	}
	return orderResponse{
		ID:          order.ID,
		CustomerID:  order.CustomerID,
		AmountMinor: order.AmountMinor(),
		CreatedAt:   order.CreatedAt,
		Lines:       lines,
	}
}
