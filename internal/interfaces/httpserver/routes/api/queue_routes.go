package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/requests"
	"teleclinic/consult-api/internal/interfaces/httpserver/responses"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// RegisterQueueRoutes registers the patient queue routes.
func RegisterQueueRoutes(router gin.IRoutes, handler *handlers.QueueHandler) {
	router.GET("/patientQueue/:doctorId", fetchQueue(handler))
	router.POST("/patientQueue/join", joinQueue(handler))
	router.POST("/patientQueue/leave", leaveQueue(handler))
}

// fetchQueue godoc
// @Summary      Get a doctor's queue
// @Description  Returns the doctor's waiting queue ordered by position.
// @Tags         Patient Queue API
// @Produce      json
// @Param        doctorId path int true "Doctor ID"
// @Success      200 {object} responses.QueueResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /patientQueue/{doctorId} [get]
func fetchQueue(handler *handlers.QueueHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorID, err := strconv.ParseInt(c.Param("doctorId"), 10, 64)
		if err != nil || doctorID <= 0 {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid doctor id")
			return
		}

		entries, err := handler.Fetch(c.Request.Context(), doctorID)
		if err != nil {
			responses.HandleError(c, err, "failed to fetch queue")
			return
		}

		c.JSON(http.StatusOK, responses.NewQueueResponse(entries))
	}
}

// joinQueue godoc
// @Summary      Join a doctor's queue
// @Description  Admits the patient to the doctor's waiting queue. Idempotent: joining while already queued returns the current position.
// @Tags         Patient Queue API
// @Accept       json
// @Produce      json
// @Param        request body requests.QueueMembership true "Pair to enqueue"
// @Success      200 {object} responses.JoinQueueResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /patientQueue/join [post]
func joinQueue(handler *handlers.QueueHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.QueueMembership
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		if !mayActAs(principal, auth.RolePatient, req.PatientID) {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "cannot join a queue for another patient")
			return
		}

		result, err := handler.Join(c.Request.Context(), req.PatientID, req.DoctorID)
		if err != nil {
			responses.HandleError(c, err, "failed to join queue")
			return
		}

		c.JSON(http.StatusOK, responses.NewJoinQueueResponse(result))
	}
}

// leaveQueue godoc
// @Summary      Leave a doctor's queue
// @Description  Removes the patient from the doctor's queue and returns the updated queue. Leaving while not queued succeeds.
// @Tags         Patient Queue API
// @Accept       json
// @Produce      json
// @Param        request body requests.QueueMembership true "Pair to dequeue"
// @Success      200 {object} responses.QueueResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /patientQueue/leave [post]
func leaveQueue(handler *handlers.QueueHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.QueueMembership
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		if !mayActAs(principal, auth.RolePatient, req.PatientID) {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "cannot remove another patient from a queue")
			return
		}

		entries, err := handler.Leave(c.Request.Context(), req.PatientID, req.DoctorID)
		if err != nil {
			responses.HandleError(c, err, "failed to leave queue")
			return
		}

		c.JSON(http.StatusOK, responses.NewQueueResponse(entries))
	}
}
