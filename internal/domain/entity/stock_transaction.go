package entity

import "time"

// Tipos de transacción de stock.
const (
	TxTypeStockIn    = "StockIn"    // entrada
	TxTypeStockOut   = "StockOut"   // salida
	TxTypeAdjustment = "Adjustment" // corrección administrativa
	TxTypeReturn     = "Return"     // devolución al proveedor
)

// Dirección de una transacción. Solo Adjustment la necesita explícita: su signo
// lo decide el caller (set-absoluto), no el tipo, y se persiste tal cual para
// que la ley de replays del ledger siga siendo exacta.
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// KnownTxType indica si type es uno de los cuatro tipos conocidos.
func KnownTxType(t string) bool {
	switch t {
	case TxTypeStockIn, TxTypeStockOut, TxTypeAdjustment, TxTypeReturn:
		return true
	}
	return false
}

// StockTransaction es una entrada del ledger: append-only, nunca se actualiza
// ni se borra. Quantity siempre es magnitud positiva; el signo lo implica el
// tipo (y Direction para Adjustment).
type StockTransaction struct {
	ID              string
	ProductID       string
	Type            string
	Direction       string // solo relevante para Adjustment
	Quantity        int64  // > 0 siempre
	ReferenceNumber string
	Notes           string
	CreatedBy       string
	CreatedAt       time.Time
}

// SignedDelta devuelve el efecto de la transacción sobre quantity_on_hand:
// +Quantity para StockIn y Adjustment-increase; -Quantity para StockOut,
// Return y Adjustment-decrease.
func (t *StockTransaction) SignedDelta() int64 {
	switch t.Type {
	case TxTypeStockIn:
		return t.Quantity
	case TxTypeStockOut, TxTypeReturn:
		return -t.Quantity
	case TxTypeAdjustment:
		if t.Direction == DirectionDecrease {
			return -t.Quantity
		}
		return t.Quantity
	}
	return 0
}
