package postgres

import (
	"context"
	"fmt"

	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
)

// SeriesAllocator aloca números de documento de forma atômica via upsert.
// O incremento acontece dentro do próprio comando SQL, então emissões
// concorrentes nunca observam o mesmo número (sem SELECT max+1).
type SeriesAllocator struct {
	db Querier
}

var _ repository.SeriesAllocator = (*SeriesAllocator)(nil)

func NewSeriesAllocator(db Querier) *SeriesAllocator {
	return &SeriesAllocator{db: db}
}

func (a *SeriesAllocator) NextNumber(ctx context.Context, modelo string, serie int) (int64, error) {
	query := `
		INSERT INTO fiscal_series (modelo, serie, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (modelo, serie)
		DO UPDATE SET last_number = fiscal_series.last_number + 1,
		              updated_at  = NOW()
		RETURNING last_number`

	var n int64
	if err := a.db.QueryRow(ctx, query, modelo, serie).Scan(&n); err != nil {
		return 0, fmt.Errorf("alocar número da série %s/%d: %w", modelo, serie, err)
	}
	return n, nil
}
