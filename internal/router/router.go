package router

import (
	"time"

	"github.com/fjsv09/profinanzas-sub000/internal/config"
	"github.com/fjsv09/profinanzas-sub000/internal/handler"
	"github.com/fjsv09/profinanzas-sub000/internal/middleware"
	"github.com/fjsv09/profinanzas-sub000/internal/policy"
	"github.com/fjsv09/profinanzas-sub000/internal/repository"
	"github.com/fjsv09/profinanzas-sub000/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	prestamoRepo := repository.NewPrestamoRepository(db)
	pagoRepo := repository.NewPagoRepository(db)
	metaRepo := repository.NewMetaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	clienteSvc := service.NewClienteService(clienteRepo, usuarioRepo)
	prestamoSvc := service.NewPrestamoService(prestamoRepo, pagoRepo, clienteRepo, usuarioRepo)
	metaSvc := service.NewMetaService(metaRepo, usuarioRepo)
	reporteSvc := service.NewReporteService(
		prestamoRepo, pagoRepo, clienteRepo, usuarioRepo,
		rdb, time.Duration(cfg.ReporteCacheTTLSeconds)*time.Second,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	prestamosH := handler.NewPrestamosHandler(prestamoSvc)
	metasH := handler.NewMetasHandler(metaSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	todos := middleware.RequireRole(
		policy.RoleAdminSistema, policy.RoleAdministrador,
		policy.RoleSupervisor, policy.RoleAsesor,
	)
	admins := middleware.RequireRole(policy.RoleAdminSistema, policy.RoleAdministrador)
	adminsYSupervisores := middleware.RequireRole(
		policy.RoleAdminSistema, policy.RoleAdministrador, policy.RoleSupervisor,
	)

	v1 := r.Group("/v1", jwtMW)
	{
		// Clientes — scoping fino por cartera lo resuelve el servicio
		clientes := v1.Group("/clientes", todos)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.ObtenerPorID)
			clientes.PUT("/:id", clientesH.Actualizar)
			clientes.DELETE("/:id", clientesH.Eliminar)
		}

		// Préstamos — aprobación, rechazo y borrado quedan en administración
		prestamos := v1.Group("/prestamos", todos)
		{
			prestamos.POST("", prestamosH.Solicitar)
			prestamos.GET("", prestamosH.Listar)
			prestamos.GET("/:id", prestamosH.ObtenerPorID)
			prestamos.GET("/:id/cronograma", prestamosH.Cronograma)
			prestamos.GET("/:id/pagos", prestamosH.ListarPagos)
			prestamos.POST("/:id/pagos", prestamosH.RegistrarPago)
			prestamos.PATCH("/:id/aprobar", admins, prestamosH.Aprobar)
			prestamos.PATCH("/:id/rechazar", admins, prestamosH.Rechazar)
			prestamos.DELETE("/:id", admins, prestamosH.Eliminar)
		}

		// Metas — lectura para todos, escritura solo administración
		v1.GET("/metas", todos, metasH.Listar)
		v1.GET("/metas/:id", todos, metasH.ObtenerPorID)
		metas := v1.Group("/metas", admins)
		{
			metas.POST("", metasH.Crear)
			metas.PUT("/:id", metasH.Actualizar)
			metas.DELETE("/:id", metasH.Eliminar)
		}

		reportes := v1.Group("/reportes", adminsYSupervisores)
		{
			reportes.GET("/resumen", reportesH.ResumenCartera)
			reportes.GET("/asesores", reportesH.ResumenPorAsesor)
		}

		usuarios := v1.Group("/usuarios", admins)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
