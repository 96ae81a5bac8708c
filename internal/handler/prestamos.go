package handler

import (
	"net/http"

	"github.com/fjsv09/profinanzas-sub000/internal/apierror"
	"github.com/fjsv09/profinanzas-sub000/internal/dto"
	"github.com/fjsv09/profinanzas-sub000/internal/middleware"
	"github.com/fjsv09/profinanzas-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PrestamosHandler struct{ svc service.PrestamoService }

func NewPrestamosHandler(svc service.PrestamoService) *PrestamosHandler {
	return &PrestamosHandler{svc: svc}
}

func prestamoID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// Solicitar godoc
// @Summary      Solicitar prestamo
// @Description  Crea una solicitud en estado pendiente. El monto total se calcula como monto * (1 + interes/100).
// @Tags         prestamos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.SolicitarPrestamoRequest true "Parametros del prestamo"
// @Success      201  {object} dto.PrestamoResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/prestamos [post]
func (h *PrestamosHandler) Solicitar(c *gin.Context) {
	var req dto.SolicitarPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Solicitar(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar prestamos
// @Description  Lista paginada con estado derivado (incluye "atrasado") limitada a la cartera visible.
// @Tags         prestamos
// @Produce      json
// @Security     BearerAuth
// @Param        estado     query string false "pendiente | activo | atrasado | completado | rechazado | all"
// @Param        cliente_id query string false "UUID del cliente"
// @Param        asesor_id  query string false "UUID del asesor"
// @Param        page  query int false "Pagina (default 1)"
// @Param        limit query int false "Registros por pagina (default 50)"
// @Success      200   {object} dto.PrestamoListResponse
// @Router       /v1/prestamos [get]
func (h *PrestamosHandler) Listar(c *gin.Context) {
	var filter dto.PrestamoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), middleware.GetPrincipal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID godoc
// @Summary      Obtener prestamo
// @Tags         prestamos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del prestamo"
// @Success      200  {object} dto.PrestamoResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/prestamos/{id} [get]
func (h *PrestamosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Aprobar godoc
// @Summary      Aprobar prestamo
// @Description  Solo administradores; requiere estado pendiente. El comentario es opcional.
// @Tags         prestamos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del prestamo"
// @Param        body body dto.AprobarPrestamoRequest false "Comentario opcional"
// @Success      200  {object} dto.PrestamoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/prestamos/{id}/aprobar [patch]
func (h *PrestamosHandler) Aprobar(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	var req dto.AprobarPrestamoRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Aprobar(c.Request.Context(), middleware.GetPrincipal(c), id, req.Comentario)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Rechazar godoc
// @Summary      Rechazar prestamo
// @Description  Solo administradores; requiere estado pendiente. El comentario es obligatorio.
// @Tags         prestamos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del prestamo"
// @Param        body body dto.RechazarPrestamoRequest true "Motivo del rechazo"
// @Success      200  {object} dto.PrestamoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/prestamos/{id}/rechazar [patch]
func (h *PrestamosHandler) Rechazar(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	var req dto.RechazarPrestamoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Rechazar(c.Request.Context(), middleware.GetPrincipal(c), id, req.Comentario)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarPago godoc
// @Summary      Registrar pago
// @Description  Registra una cuota cobrada sobre un prestamo activo. Cada pago avanza cuotas_pagadas en 1; al completar todas las cuotas el prestamo pasa a completado.
// @Tags         prestamos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID del prestamo"
// @Param        body body dto.RegistrarPagoRequest true "Detalle del pago"
// @Success      201  {object} dto.RegistrarPagoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/prestamos/{id}/pagos [post]
func (h *PrestamosHandler) RegistrarPago(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegistrarPago(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarPagos godoc
// @Summary      Listar pagos de un prestamo
// @Tags         prestamos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del prestamo"
// @Success      200  {array} dto.PagoResponse
// @Router       /v1/prestamos/{id}/pagos [get]
func (h *PrestamosHandler) ListarPagos(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListarPagos(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cronograma godoc
// @Summary      Cronograma de cuotas
// @Description  Proyeccion determinista de fechas y montos; nunca se persiste.
// @Tags         prestamos
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del prestamo"
// @Success      200  {object} dto.CronogramaResponse
// @Router       /v1/prestamos/{id}/cronograma [get]
func (h *PrestamosHandler) Cronograma(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Cronograma(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar prestamo
// @Description  Solo administradores, y solo si el prestamo no registra pagos.
// @Tags         prestamos
// @Security     BearerAuth
// @Param        id path string true "UUID del prestamo"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/prestamos/{id} [delete]
func (h *PrestamosHandler) Eliminar(c *gin.Context) {
	id, ok := prestamoID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
