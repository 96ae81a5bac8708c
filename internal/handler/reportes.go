package handler

import (
	"net/http"

	"github.com/fjsv09/profinanzas-sub000/internal/middleware"
	"github.com/fjsv09/profinanzas-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// ResumenCartera godoc
// @Summary      Resumen de cartera
// @Description  Totales de cartera con desglose por estado; el conteo de atrasados se deriva del reloj en cada lectura.
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.ResumenCartera
// @Router       /v1/reportes/resumen [get]
func (h *ReportesHandler) ResumenCartera(c *gin.Context) {
	resp, err := h.svc.ResumenCartera(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenPorAsesor godoc
// @Summary      Resumen por asesor
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.ReporteAsesoresResponse
// @Router       /v1/reportes/asesores [get]
func (h *ReportesHandler) ResumenPorAsesor(c *gin.Context) {
	resp, err := h.svc.ResumenPorAsesor(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
