package stockservice

// Outcome é o resultado observável de uma operação de escrita.
// Rejeições de negócio não são erros: o error fica reservado para falhas do store.
type Outcome int

const (
	// Failed acompanha um error não nulo e não deve ser interpretado.
	Failed Outcome = iota
	Applied
	NotFound
	InvalidInput
	AlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case Failed:
		return "failed"
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case InvalidInput:
		return "invalid_input"
	case AlreadyExists:
		return "already_exists"
	}
	return "unknown"
}
