package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"optipos/internal/middleware"
	"optipos/internal/model"
	"optipos/internal/service"
	"optipos/pkg/apperror"
	"optipos/pkg/pagination"
	"optipos/pkg/response"
)

// PatientHandler exposes patient records and eye-checkup endpoints.
type PatientHandler struct {
	patientService service.PatientService
}

func NewPatientHandler(patientService service.PatientService) *PatientHandler {
	return &PatientHandler{patientService: patientService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *PatientHandler) RegisterRoutes(router *gin.RouterGroup) {
	patients := router.Group("/patients", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.POST("", h.CreatePatient)
		patients.PUT("/:id", h.UpdatePatient)
		patients.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeletePatient)

		patients.GET("/:id/checkups", h.ListCheckups)
		patients.POST("/:id/checkups", h.CreateCheckup)
	}

	checkups := router.Group("/checkups", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		checkups.GET("/:id", h.GetCheckup)
		checkups.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteCheckup)
	}
}

// ListPatients handles GET /patients
// @Summary      List patients
// @Description  Retrieves a paginated, searchable list of patients
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search by name or phone"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]model.Patient}
// @Router       /patients [get]
func (h *PatientHandler) ListPatients(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")

	patients, total, err := h.patientService.ListPatients(c.Request.Context(), search, params.Page, params.Limit)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, patients, params.Page, params.Limit, total))
}

// GetPatient handles GET /patients/:id
// @Summary      Get patient by ID
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  response.Response{data=model.Patient}
// @Failure      404  {object}  response.Response
// @Router       /patients/{id} [get]
func (h *PatientHandler) GetPatient(c *gin.Context) {
	patient, err := h.patientService.GetPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

// CreatePatient handles POST /patients
// @Summary      Create a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.PatientRequest  true  "Patient Payload"
// @Success      201      {object}  response.Response{data=model.Patient}
// @Failure      400      {object}  response.Response
// @Router       /patients [post]
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req service.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	patient, err := h.patientService.CreatePatient(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, patient))
}

// UpdatePatient handles PUT /patients/:id
// @Summary      Update a patient
// @Tags         patients
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Patient ID"
// @Param        payload  body      service.PatientRequest  true  "Patient Payload"
// @Success      200      {object}  response.Response{data=model.Patient}
// @Failure      404      {object}  response.Response
// @Router       /patients/{id} [put]
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	var req service.PatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	patient, err := h.patientService.UpdatePatient(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, patient))
}

// DeletePatient handles DELETE /patients/:id
// @Summary      Delete a patient
// @Description  Soft-deletes a patient. Their checkups and transactions stay on record.
// @Tags         patients
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Patient ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /patients/{id} [delete]
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	if err := h.patientService.DeletePatient(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Patient deleted successfully"))
}

// ListCheckups handles GET /patients/:id/checkups
// @Summary      List checkups for a patient
// @Description  Retrieves a patient's checkup history, newest first, with prescriptions preloaded
// @Tags         checkups
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Patient ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]model.Checkup}
// @Failure      404    {object}  response.Response
// @Router       /patients/{id}/checkups [get]
func (h *PatientHandler) ListCheckups(c *gin.Context) {
	params := pagination.Parse(c)

	checkups, total, err := h.patientService.ListCheckups(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, checkups, params.Page, params.Limit, total))
}

// CreateCheckup handles POST /patients/:id/checkups
// @Summary      Record a checkup
// @Description  Records an eye checkup with optional spectacle and contact-lens prescriptions
// @Tags         checkups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Patient ID"
// @Param        payload  body      service.CreateCheckupRequest  true  "Checkup Payload"
// @Success      201      {object}  response.Response{data=model.Checkup}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /patients/{id}/checkups [post]
func (h *PatientHandler) CreateCheckup(c *gin.Context) {
	var req service.CreateCheckupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	checkup, err := h.patientService.CreateCheckup(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, checkup))
}

// GetCheckup handles GET /checkups/:id
// @Summary      Get checkup by ID
// @Tags         checkups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Checkup ID"
// @Success      200  {object}  response.Response{data=model.Checkup}
// @Failure      404  {object}  response.Response
// @Router       /checkups/{id} [get]
func (h *PatientHandler) GetCheckup(c *gin.Context) {
	checkup, err := h.patientService.GetCheckup(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, checkup))
}

// DeleteCheckup handles DELETE /checkups/:id
// @Summary      Delete a checkup
// @Tags         checkups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Checkup ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /checkups/{id} [delete]
func (h *PatientHandler) DeleteCheckup(c *gin.Context) {
	if err := h.patientService.DeleteCheckup(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Checkup deleted successfully"))
}
