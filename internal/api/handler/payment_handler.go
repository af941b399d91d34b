package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/localkart/localkart-api/internal/api/metrics"
	"github.com/localkart/localkart-api/internal/core/domain"
	"github.com/localkart/localkart-api/internal/core/ports"
)

type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// CreateOrder opens a gateway order for checkout.
//
// @Summary      Create payment order
// @Tags         payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Amount in major units"
// @Success      200   {object}  createOrderResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /payment/order [post]
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		metrics.PaymentOrdersTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	userID, _ := currentUserID(c)
	res, err := h.service.CreateOrder(c.Request().Context(), ports.CreateOrderInput{
		Amount: req.amountValue(),
		UserID: userID,
	})
	if err != nil {
		result := "error"
		switch {
		case errors.Is(err, domain.ErrValidation):
			result = "invalid"
		case errors.Is(err, domain.ErrGateway):
			result = "gateway_error"
		}
		metrics.PaymentOrdersTotal.WithLabelValues(result).Inc()
		return err
	}
	metrics.PaymentOrdersTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, createOrderResponse{
		Success:  true,
		OrderID:  res.OrderID,
		Currency: res.Currency,
		Amount:   res.Amount,
		Key:      res.Key,
	})
}

// Verify checks the signature the gateway returned to the client.
//
// @Summary      Verify payment signature
// @Tags         payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verifyPaymentRequest  true  "Gateway callback fields"
// @Success      200   {object}  verifyPaymentResponse
// @Failure      400   {object}  verifyPaymentResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /payment/verify [post]
func (h *PaymentHandler) Verify(c echo.Context) error {
	var req verifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ok, err := h.service.VerifySignature(c.Request().Context(), ports.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		RequestID: requestID(c),
	})
	if err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	if !ok {
		metrics.PaymentVerificationsTotal.WithLabelValues("rejected").Inc()
		return c.JSON(http.StatusBadRequest, verifyPaymentResponse{Success: false, Message: "invalid signature"})
	}
	metrics.PaymentVerificationsTotal.WithLabelValues("verified").Inc()
	return c.JSON(http.StatusOK, verifyPaymentResponse{Success: true})
}
