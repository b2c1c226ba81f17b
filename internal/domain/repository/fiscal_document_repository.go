package repository

import (
	"context"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
)

// FiscalDocumentRepository define o porto de persistência dos documentos fiscais.
type FiscalDocumentRepository interface {
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	// Update atualiza os campos de resultado da transmissão:
	// status, protocolo, c_stat, motivo, xml_path, pdf_path, qrcode_url.
	Update(ctx context.Context, doc *entity.FiscalDocument) error
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	GetByAccessKey(ctx context.Context, chave string) (*entity.FiscalDocument, error)
	// ListByPeriod devolve documentos emitidos no ano/mês; modelo vazio = todos.
	ListByPeriod(ctx context.Context, year int, month int, modelo string) ([]*entity.FiscalDocument, error)
}
