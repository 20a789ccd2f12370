package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	// ErrDuplicate: la nota de crédito ya está registrada (o ya apareció en esta corrida).
	ErrDuplicate = errors.New("nota de crédito duplicada")
	// ErrUnresolved: el libro de compras no devolvió factura/destino para la relación y remisión.
	ErrUnresolved = errors.New("remisión sin destino en el libro de compras")

	// Errores de base de datos por fase.
	ErrDatabaseConnection = errors.New("error de conexión a la base de datos")
	ErrDatabaseQuery      = errors.New("error de consulta a la base de datos")
	ErrDatabaseWrite      = errors.New("error de escritura en la base de datos")
)
