package entity

import "time"

// Stock representa el saldo actual de un producto: una fila por producto activo,
// creada junto con el producto y nunca borrada mientras el producto exista.
// QuantityAvailable es derivado (OnHand - Reserved); se recalcula en cada
// escritura dentro de la misma transacción, nunca se acepta como input.
type Stock struct {
	ProductID         string
	QuantityOnHand    int64
	QuantityReserved  int64
	QuantityAvailable int64
	LastUpdated       time.Time
	LastUpdatedBy     string
}

// Recompute recalcula el disponible a partir de on-hand y reservado.
func (s *Stock) Recompute() {
	s.QuantityAvailable = s.QuantityOnHand - s.QuantityReserved
}

// Valid verifica el invariante on_hand >= reserved >= 0.
func (s *Stock) Valid() bool {
	return s.QuantityReserved >= 0 && s.QuantityOnHand >= s.QuantityReserved
}
