package repository

import (
	"context"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
)

// SaleRepository define o porto de leitura das vendas do PDV.
// A emissão fiscal só escreve a referência de volta; o restante da venda é
// responsabilidade do módulo de vendas.
type SaleRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// SetFiscalReference grava documento, chave e status fiscal na venda.
	SetFiscalReference(ctx context.Context, saleID, documentID, accessKey, status string) error
	// SetPixCharge anexa o BR Code e o txid da cobrança PIX à venda.
	SetPixCharge(ctx context.Context, saleID, qrCode, txID string) error
}
