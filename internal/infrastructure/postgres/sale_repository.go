package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
)

// SaleRepository leitura das vendas do PDV para a emissão fiscal.
// A venda é montada de três tabelas: sales, sale_items e sale_payments.
type SaleRepository struct {
	db Querier
}

var _ repository.SaleRepository = (*SaleRepository)(nil)

func NewSaleRepository(db Querier) *SaleRepository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	query := `
		SELECT id, numero, cliente_documento, cliente_nome,
		       desconto, total, created_at,
		       fiscal_document_id, fiscal_access_key, fiscal_status,
		       pix_qr_code, pix_tx_id
		FROM sales
		WHERE id = $1`

	var sale entity.Sale
	var clienteDoc, clienteNome, fiscalDocID, fiscalKey, fiscalStatus *string
	var pixQRCode, pixTxID *string

	err := r.db.QueryRow(ctx, query, id).Scan(
		&sale.ID, &sale.Numero, &clienteDoc, &clienteNome,
		&sale.Desconto, &sale.Total, &sale.CreatedAt,
		&fiscalDocID, &fiscalKey, &fiscalStatus,
		&pixQRCode, &pixTxID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("buscar venda: %w", err)
	}

	if clienteDoc != nil && *clienteDoc != "" {
		sale.Cliente = &entity.SaleCustomer{Documento: *clienteDoc}
		if clienteNome != nil {
			sale.Cliente.Nome = *clienteNome
		}
	}
	if fiscalDocID != nil {
		sale.FiscalDocumentID = *fiscalDocID
	}
	if fiscalKey != nil {
		sale.FiscalAccessKey = *fiscalKey
	}
	if fiscalStatus != nil {
		sale.FiscalStatus = *fiscalStatus
	}
	if pixQRCode != nil {
		sale.PixQRCode = *pixQRCode
	}
	if pixTxID != nil {
		sale.PixTxID = *pixTxID
	}

	if sale.Items, err = r.loadItems(ctx, id); err != nil {
		return nil, err
	}
	if sale.Payments, err = r.loadPayments(ctx, id); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *SaleRepository) loadItems(ctx context.Context, saleID string) ([]entity.SaleItem, error) {
	query := `
		SELECT codigo, descricao, ncm, cfop, unidade,
		       quantidade, valor_unit, desconto, total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("buscar itens da venda: %w", err)
	}
	defer rows.Close()

	var items []entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		if err := rows.Scan(
			&it.Codigo, &it.Descricao, &it.NCM, &it.CFOP, &it.Unidade,
			&it.Quantidade, &it.ValorUnit, &it.Desconto, &it.Total,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SaleRepository) loadPayments(ctx context.Context, saleID string) ([]entity.SalePayment, error) {
	query := `
		SELECT codigo, valor
		FROM sale_payments
		WHERE sale_id = $1
		ORDER BY seq`

	rows, err := r.db.Query(ctx, query, saleID)
	if err != nil {
		return nil, fmt.Errorf("buscar pagamentos da venda: %w", err)
	}
	defer rows.Close()

	var payments []entity.SalePayment
	for rows.Next() {
		var p entity.SalePayment
		if err := rows.Scan(&p.Codigo, &p.Valor); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *SaleRepository) SetFiscalReference(ctx context.Context, saleID, documentID, accessKey, status string) error {
	query := `
		UPDATE sales SET
			fiscal_document_id = $2,
			fiscal_access_key  = $3,
			fiscal_status      = $4,
			updated_at         = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, saleID, documentID, nullIfEmpty(accessKey), status)
	if err != nil {
		return fmt.Errorf("gravar referência fiscal na venda: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SaleRepository) SetPixCharge(ctx context.Context, saleID, qrCode, txID string) error {
	query := `
		UPDATE sales SET
			pix_qr_code = $2,
			pix_tx_id   = $3,
			updated_at  = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, saleID, qrCode, txID)
	if err != nil {
		return fmt.Errorf("gravar cobrança PIX na venda: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
