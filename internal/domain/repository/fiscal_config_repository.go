package repository

import (
	"context"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
)

// FiscalConfigRepository define o porto de persistência da configuração fiscal.
type FiscalConfigRepository interface {
	// GetActive devolve a configuração ativa; domain.ErrNoFiscalConfig se não houver.
	GetActive(ctx context.Context) (*entity.FiscalConfig, error)
	// Save cria ou atualiza a configuração ativa (upsert do registro único).
	Save(ctx context.Context, cfg *entity.FiscalConfig) error
}
