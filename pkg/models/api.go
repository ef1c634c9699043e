package models

// SuccessResponse is the envelope every mutating endpoint returns.
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty" example:"Procedimiento judicial creado exitosamente"`
}

// ErrorResponse is the envelope for 403/404/409/500 errors.
type ErrorResponse struct {
	Error string `json:"error" example:"Caso legal no encontrado"`
}

// ValidationErrorResponse carries field-level issues for 400s.
type ValidationErrorResponse struct {
	Error   string              `json:"error" example:"Datos de entrada inválidos"`
	Details map[string][]string `json:"details"`
}
