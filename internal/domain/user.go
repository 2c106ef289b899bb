package domain

// UserRole é um tipo string para representar o papel do operador no sistema.
type UserRole string

// Constantes para os papéis aceitos nos tokens da API.
const (
	RoleAdmin    UserRole = "admin"
	RoleOperator UserRole = "operator"
	RoleViewer   UserRole = "viewer"
)

// Credentials representa o payload de entrada do login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
