package repository

import "context"

// SeriesAllocator aloca o próximo número de documento para (modelo, série).
// A implementação deve ser atômica: duas emissões concorrentes nunca podem
// observar o mesmo número, e a sequência é estritamente crescente.
type SeriesAllocator interface {
	NextNumber(ctx context.Context, modelo string, serie int) (int64, error)
}
