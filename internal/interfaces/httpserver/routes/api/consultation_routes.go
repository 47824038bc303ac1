package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"teleclinic/consult-api/internal/domain/consultation"
	"teleclinic/consult-api/internal/infrastructure/auth"
	"teleclinic/consult-api/internal/interfaces/httpserver/handlers"
	"teleclinic/consult-api/internal/interfaces/httpserver/requests"
	"teleclinic/consult-api/internal/interfaces/httpserver/responses"
	"teleclinic/consult-api/internal/utils/platformerrors"
)

// RegisterConsultationRoutes registers the consultation lifecycle routes.
func RegisterConsultationRoutes(router gin.IRoutes, handler *handlers.ConsultationHandler) {
	router.POST("/consultation/startConsultation", startConsultation(handler))
	router.POST("/consultation/checkStatus", checkStatus(handler))
	router.POST("/consultation/rejoin", rejoin(handler))
	router.POST("/consultation/:id/end", endByID(handler))
	router.POST("/consultation/endConsultation", endConsultation(handler))
	router.GET("/consultation/history", ownHistory(handler))
	router.GET("/consultation/doctor/:id/history", doctorHistory(handler))
	router.GET("/consultation/patient/:id/history", patientHistory(handler))
}

// startConsultation godoc
// @Summary      Start a consultation
// @Description  Starts a video consultation for a doctor/patient pair. Returns the existing session when one is already ongoing.
// @Tags         Consultation API
// @Accept       json
// @Produce      json
// @Param        request body requests.StartConsultation true "Pair to start"
// @Success      200 {object} responses.StartConsultationResponse
// @Failure      400 {object} responses.ErrorResponse
// @Failure      403 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/startConsultation [post]
func startConsultation(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.StartConsultation
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		if !mayActAs(principal, auth.RoleDoctor, req.DoctorID) {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "only the doctor may start a consultation")
			return
		}

		cons, err := handler.Start(c.Request.Context(), req.DoctorID, req.PatientID)
		if err != nil {
			responses.HandleError(c, err, "failed to start consultation")
			return
		}

		c.JSON(http.StatusOK, responses.NewStartConsultationResponse(cons, ""))
	}
}

// checkStatus godoc
// @Summary      Check pair status
// @Description  Resolves what the pair should do right now: rejoin, wait, join the queue, or nothing. autoJoin admits the patient to the queue when no state exists.
// @Tags         Consultation API
// @Accept       json
// @Produce      json
// @Param        request body requests.CheckStatus true "Pair to resolve"
// @Success      200 {object} responses.StatusResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/checkStatus [post]
func checkStatus(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.CheckStatus
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		// Only patients may auto-join a queue through a status check.
		principal := currentPrincipal(c)
		autoJoin := req.AutoJoin && (principal.UserID == 0 || principal.Role == auth.RolePatient)

		result, err := handler.CheckStatus(c.Request.Context(), req.DoctorID, req.PatientID, autoJoin)
		if err != nil {
			responses.HandleError(c, err, "failed to check status")
			return
		}

		c.JSON(http.StatusOK, responses.NewStatusResponse(result))
	}
}

// rejoin godoc
// @Summary      Rejoin a consultation
// @Description  Resumes an ongoing consultation after a disconnect or page reload. Fails with a conflict when the session already ended.
// @Tags         Consultation API
// @Accept       json
// @Produce      json
// @Param        request body requests.Rejoin true "Consultation to resume"
// @Success      200 {object} responses.StartConsultationResponse
// @Failure      403 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Failure      409 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/rejoin [post]
func rejoin(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.Rejoin
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		if !mayActAs(principal, auth.Role(req.UserType), req.UserID) {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "cannot rejoin as another user")
			return
		}

		cons, err := handler.Rejoin(c.Request.Context(), req.ConsultationID, req.UserID, req.UserType)
		if err != nil {
			responses.HandleError(c, err, "failed to rejoin consultation")
			return
		}

		c.JSON(http.StatusOK, responses.NewStartConsultationResponse(cons, "rejoined consultation"))
	}
}

// endByID godoc
// @Summary      End a consultation by ID
// @Description  Ends the consultation addressed by path ID. Notes are optional.
// @Tags         Consultation API
// @Accept       json
// @Produce      json
// @Param        id path string true "Consultation ID"
// @Param        request body requests.EndByID false "Optional notes"
// @Success      200 {object} responses.AckResponse
// @Failure      404 {object} responses.ErrorResponse
// @Failure      409 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/{id}/end [post]
func endByID(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		var req requests.EndByID
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
				return
			}
		}

		principal := currentPrincipal(c)
		var doctorID int64
		if principal.Role == auth.RoleDoctor {
			doctorID = principal.UserID
		}

		if err := handler.End(c.Request.Context(), id, doctorID, req.Notes); err != nil {
			responses.HandleError(c, err, "failed to end consultation")
			return
		}

		c.JSON(http.StatusOK, responses.AckResponse{Success: true, Message: "consultation ended"})
	}
}

// endConsultation godoc
// @Summary      End a consultation
// @Description  Ends the consultation identified in the body. Doctor-side form of the end operation.
// @Tags         Consultation API
// @Accept       json
// @Produce      json
// @Param        request body requests.EndConsultation true "Consultation to end"
// @Success      200 {object} responses.AckResponse
// @Failure      403 {object} responses.ErrorResponse
// @Failure      404 {object} responses.ErrorResponse
// @Failure      409 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/endConsultation [post]
func endConsultation(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.EndConsultation
		if err := c.ShouldBindJSON(&req); err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error())
			return
		}

		principal := currentPrincipal(c)
		if !mayActAs(principal, auth.RoleDoctor, req.DoctorID) {
			responses.HandleNewError(c, platformerrors.ErrorTypeForbidden, "only the doctor may end a consultation")
			return
		}

		if err := handler.End(c.Request.Context(), req.ConsultationID, req.DoctorID, req.Notes); err != nil {
			responses.HandleError(c, err, "failed to end consultation")
			return
		}

		c.JSON(http.StatusOK, responses.AckResponse{Success: true, Message: "consultation ended"})
	}
}

// ownHistory godoc
// @Summary      Own consultation history
// @Description  Lists terminal consultations for the authenticated user, newest first.
// @Tags         Consultation API
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200 {object} responses.HistoryResponse
// @Security     BearerAuth
// @Router       /consultation/history [get]
func ownHistory(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := currentPrincipal(c)

		var doctorID, patientID int64
		switch principal.Role {
		case auth.RoleDoctor:
			doctorID = principal.UserID
		case auth.RolePatient:
			patientID = principal.UserID
		}

		serveHistory(c, handler, doctorID, patientID)
	}
}

// doctorHistory godoc
// @Summary      Doctor consultation history
// @Description  Lists terminal consultations for a doctor, newest first.
// @Tags         Consultation API
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200 {object} responses.HistoryResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/doctor/{id}/history [get]
func doctorHistory(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		doctorID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || doctorID <= 0 {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid doctor id")
			return
		}
		serveHistory(c, handler, doctorID, 0)
	}
}

// patientHistory godoc
// @Summary      Patient consultation history
// @Description  Lists terminal consultations for a patient, newest first.
// @Tags         Consultation API
// @Produce      json
// @Param        id path int true "Patient ID"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200 {object} responses.HistoryResponse
// @Failure      400 {object} responses.ErrorResponse
// @Security     BearerAuth
// @Router       /consultation/patient/{id}/history [get]
func patientHistory(handler *handlers.ConsultationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || patientID <= 0 {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid patient id")
			return
		}
		serveHistory(c, handler, 0, patientID)
	}
}

func serveHistory(c *gin.Context, handler *handlers.ConsultationHandler, doctorID, patientID int64) {
	page := consultation.Page{
		Number: queryInt(c, "page", 1),
		Size:   queryInt(c, "limit", 20),
	}

	result, err := handler.History(c.Request.Context(), doctorID, patientID, page)
	if err != nil {
		responses.HandleError(c, err, "failed to list consultation history")
		return
	}

	c.JSON(http.StatusOK, responses.NewHistoryResponse(result))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
