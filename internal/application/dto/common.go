package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage(defaultLimit int) {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > 500 {
		p.Limit = 500
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Solo para INSUFFICIENT_STOCK: disponible y solicitado, para que el
	// cliente reaccione sin una segunda consulta.
	Available *int64 `json:"available,omitempty"`
	Requested *int64 `json:"requested,omitempty"`
}
