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

type MetasHandler struct{ svc service.MetaService }

func NewMetasHandler(svc service.MetaService) *MetasHandler { return &MetasHandler{svc: svc} }

// Crear godoc
// @Summary      Definir meta mensual
// @Description  Define las metas de un asesor para un periodo YYYY-MM. Solo administradores.
// @Tags         metas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearMetaRequest true "Metas del periodo"
// @Success      201  {object} dto.MetaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/metas [post]
func (h *MetasHandler) Crear(c *gin.Context) {
	var req dto.CrearMetaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar metas
// @Description  Incluye cumplimiento derivado y clasificacion por asesor, limitado a la cartera visible.
// @Tags         metas
// @Produce      json
// @Security     BearerAuth
// @Param        periodo query string false "YYYY-MM; vacio = todos"
// @Success      200  {array} dto.MetaResponse
// @Router       /v1/metas [get]
func (h *MetasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), middleware.GetPrincipal(c), c.Query("periodo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID godoc
// @Summary      Obtener meta
// @Tags         metas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID de la meta"
// @Success      200  {object} dto.MetaResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/metas/{id} [get]
func (h *MetasHandler) ObtenerPorID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), middleware.GetPrincipal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar meta
// @Description  Actualiza metas u avances reales. Solo administradores.
// @Tags         metas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "UUID de la meta"
// @Param        body body dto.ActualizarMetaRequest true "Campos a actualizar"
// @Success      200  {object} dto.MetaResponse
// @Router       /v1/metas/{id} [put]
func (h *MetasHandler) Actualizar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	var req dto.ActualizarMetaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), middleware.GetPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar meta
// @Tags         metas
// @Security     BearerAuth
// @Param        id path string true "UUID de la meta"
// @Success      204
// @Router       /v1/metas/{id} [delete]
func (h *MetasHandler) Eliminar(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
