package domain

// Operator roles carried in ops API tokens.
const (
	OperatorRoleAdmin  = "admin"
	OperatorRoleViewer = "viewer"
)
