package entity

// RegisteredSet índice de CreditNoteNumber ya presentes en la tabla destino.
// Se carga una vez al inicio de la corrida y no se modifica después.
type RegisteredSet struct {
	numbers map[string]struct{}
}

// NewRegisteredSet construye el índice a partir de los números leídos de la BD.
func NewRegisteredSet(numbers []string) *RegisteredSet {
	m := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		m[n] = struct{}{}
	}
	return &RegisteredSet{numbers: m}
}

// Contains indica si la nota de crédito ya está registrada.
func (s *RegisteredSet) Contains(creditNoteNumber string) bool {
	if s == nil {
		return false
	}
	_, ok := s.numbers[creditNoteNumber]
	return ok
}

// Len cantidad de notas registradas.
func (s *RegisteredSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.numbers)
}
