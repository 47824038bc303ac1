package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"teleclinic/consult-api/internal/domain/payment"
	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/requests"
	"teleclinic/consult-api/internal/interfaces/httpserver/responses"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// RegisterPaymentRoutes registers the payment routes.
func RegisterPaymentRoutes(router gin.IRoutes, handler *handlers.PaymentHandler) {
	router.POST("/payments/initiate", initiatePayment(handler))
	router.POST("/payments/verify-payment", verifyPayment(handler))
	router.GET("/payments/status/:id", paymentStatus(handler))
}

// initiatePayment godoc
// @Summary      Initiate a payment
// @Description  Registers a payment with the gateway and returns its checkout URL.
// @Tags         Payments API
// @Accept       json
// @Produce      json
// @Param        request body requests.InitiatePayment true "Payment to initiate"
// @Success      200 {object} responses.PaymentResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      502 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /payments/initiate [post]
func initiatePayment(handler *handlers.PaymentHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.InitiatePayment
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		if !mayActAs(principal, auth.RolePatient, req.PatientID) {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "cannot pay for another patient")
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid amount")
			return
		}

		result, err := handler.Initiate(c.Request.Context(), payment.InitiateRequest{
			ConsultationID: req.ConsultationID,
			PatientID:      req.PatientID,
			DoctorID:       req.DoctorID,
			Amount:         amount,
			Currency:       req.Currency,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to initiate payment")
			return
		}

		c.JSON(http.StatusOK, responses.NewPaymentResponse(result.Payment, result.CheckoutURL))
	}
}

// verifyPayment godoc
// @Summary      Verify a payment
// @Description  Confirms a completed payment against the gateway and records the outcome.
// @Tags         Payments API
// @Accept       json
// @Produce      json
// @Param        request body requests.VerifyPayment true "Payment to verify"
// @Success      200 {object} responses.PaymentResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /payments/verify-payment [post]
func verifyPayment(handler *handlers.PaymentHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.VerifyPayment
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		p, err := handler.Verify(c.Request.Context(), payment.VerifyRequest{
			PaymentID:  req.PaymentID,
			GatewayRef: req.GatewayRef,
			Signature:  req.Signature,
		})
		if err != nil {
			responses.HandleError(c, err, "failed to verify payment")
			return
		}

		c.JSON(http.StatusOK, responses.NewPaymentResponse(p, ""))
	}
}

// paymentStatus godoc
// @Summary      Get payment status
// @Description  Returns the local payment record.
// @Tags         Payments API
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} responses.PaymentResponse
// @Failure      404 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /payments/status/{id} [get]
func paymentStatus(handler *handlers.PaymentHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := handler.Status(c.Request.Context(), c.Param("id"))
		if err != nil {
			responses.HandleError(c, err, "failed to get payment status")
			return
		}

		c.JSON(http.StatusOK, responses.NewPaymentResponse(p, ""))
	}
}
