package dto

// ─── Filter / List ──────────────────────────────────────────────────────────

// ClienteFilter is bound from query string of GET /v1/clientes.
type ClienteFilter struct {
	// Busqueda matches against nombre or DNI.
	Busqueda string `form:"busqueda"`
	AsesorID string `form:"asesor_id"        validate:"omitempty,uuid"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	DNI           string `json:"dni"            validate:"required,len=8,numeric"`
	Nombre        string `json:"nombre"         validate:"required,min=2,max=150"`
	Telefono      string `json:"telefono"       validate:"required,len=9,numeric"`
	Direccion     string `json:"direccion"      validate:"omitempty,max=250"`
	Referencias   string `json:"referencias"    validate:"omitempty,max=500"`
	HistorialPago string `json:"historial_pago" validate:"omitempty,oneof=Nuevo Bueno Regular Malo"`
	// AsesorID is optional for asesores (defaults to the caller); admins and
	// supervisores must name the asesor who owns the cliente.
	AsesorID *string `json:"asesor_id" validate:"omitempty,uuid"`
}

// ActualizarClienteRequest deliberately omits the DNI: it is immutable.
type ActualizarClienteRequest struct {
	Nombre        string `json:"nombre"         validate:"omitempty,min=2,max=150"`
	Telefono      string `json:"telefono"       validate:"omitempty,len=9,numeric"`
	Direccion     string `json:"direccion"      validate:"omitempty,max=250"`
	Referencias   string `json:"referencias"    validate:"omitempty,max=500"`
	HistorialPago string `json:"historial_pago" validate:"omitempty,oneof=Nuevo Bueno Regular Malo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID            string `json:"id"`
	DNI           string `json:"dni"`
	Nombre        string `json:"nombre"`
	Telefono      string `json:"telefono"`
	Direccion     string `json:"direccion"`
	Referencias   string `json:"referencias"`
	HistorialPago string `json:"historial_pago"`
	AsesorID      string `json:"asesor_id"`
	AsesorNombre  string `json:"asesor_nombre,omitempty"`
	CreatedAt     string `json:"created_at"`
}
