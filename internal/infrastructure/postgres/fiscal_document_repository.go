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

// FiscalDocumentRepository implementação PostgreSQL do repositório de documentos fiscais.
type FiscalDocumentRepository struct {
	db Querier
}

var _ repository.FiscalDocumentRepository = (*FiscalDocumentRepository)(nil)

func NewFiscalDocumentRepository(db Querier) *FiscalDocumentRepository {
	return &FiscalDocumentRepository{db: db}
}

const fiscalDocumentColumns = `
	id, sale_id, modelo, serie, numero, chave_acesso, status,
	protocolo, c_stat, motivo, xml_path, pdf_path, qrcode_url,
	ambiente, emitida_em, created_at, updated_at`

func (r *FiscalDocumentRepository) Create(ctx context.Context, doc *entity.FiscalDocument) error {
	query := `
		INSERT INTO fiscal_documents (
			id, sale_id, modelo, serie, numero, chave_acesso, status,
			protocolo, c_stat, motivo, xml_path, pdf_path, qrcode_url,
			ambiente, emitida_em
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		doc.ID, doc.SaleID, doc.Modelo, doc.Serie, doc.Numero,
		doc.ChaveAcesso, doc.Status,
		nullIfEmpty(doc.Protocolo), nullIfEmpty(doc.CStat), nullIfEmpty(doc.Motivo),
		nullIfEmpty(doc.XMLPath), nullIfEmpty(doc.PDFPath), nullIfEmpty(doc.QRCodeURL),
		doc.Ambiente, doc.EmitidaEm,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: chave de acesso %s já emitida", domain.ErrDuplicate, doc.ChaveAcesso)
		}
		return fmt.Errorf("inserir documento fiscal: %w", err)
	}
	return nil
}

func (r *FiscalDocumentRepository) Update(ctx context.Context, doc *entity.FiscalDocument) error {
	query := `
		UPDATE fiscal_documents SET
			status     = $2,
			protocolo  = $3,
			c_stat     = $4,
			motivo     = $5,
			xml_path   = $6,
			pdf_path   = $7,
			qrcode_url = $8,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		doc.ID, doc.Status,
		nullIfEmpty(doc.Protocolo), nullIfEmpty(doc.CStat), nullIfEmpty(doc.Motivo),
		nullIfEmpty(doc.XMLPath), nullIfEmpty(doc.PDFPath), nullIfEmpty(doc.QRCodeURL),
	)
	if err != nil {
		return fmt.Errorf("atualizar documento fiscal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FiscalDocumentRepository) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + fiscalDocumentColumns + ` FROM fiscal_documents WHERE id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *FiscalDocumentRepository) GetByAccessKey(ctx context.Context, chave string) (*entity.FiscalDocument, error) {
	query := `SELECT ` + fiscalDocumentColumns + ` FROM fiscal_documents WHERE chave_acesso = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, chave))
}

func (r *FiscalDocumentRepository) ListByPeriod(ctx context.Context, year, month int, modelo string) ([]*entity.FiscalDocument, error) {
	query := `
		SELECT ` + fiscalDocumentColumns + `
		FROM fiscal_documents
		WHERE EXTRACT(YEAR FROM emitida_em) = $1
		  AND EXTRACT(MONTH FROM emitida_em) = $2
		  AND ($3::text IS NULL OR modelo = $3)
		ORDER BY emitida_em, numero`

	rows, err := r.db.Query(ctx, query, year, month, nullIfEmpty(modelo))
	if err != nil {
		return nil, fmt.Errorf("listar documentos fiscais: %w", err)
	}
	defer rows.Close()

	var docs []*entity.FiscalDocument
	for rows.Next() {
		doc, err := scanFiscalDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *FiscalDocumentRepository) scanOne(row pgx.Row) (*entity.FiscalDocument, error) {
	doc, err := scanFiscalDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func scanFiscalDocument(row pgx.Row) (*entity.FiscalDocument, error) {
	var doc entity.FiscalDocument
	var protocolo, cStat, motivo, xmlPath, pdfPath, qrcodeURL *string

	err := row.Scan(
		&doc.ID, &doc.SaleID, &doc.Modelo, &doc.Serie, &doc.Numero,
		&doc.ChaveAcesso, &doc.Status,
		&protocolo, &cStat, &motivo, &xmlPath, &pdfPath, &qrcodeURL,
		&doc.Ambiente, &doc.EmitidaEm, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if protocolo != nil {
		doc.Protocolo = *protocolo
	}
	if cStat != nil {
		doc.CStat = *cStat
	}
	if motivo != nil {
		doc.Motivo = *motivo
	}
	if xmlPath != nil {
		doc.XMLPath = *xmlPath
	}
	if pdfPath != nil {
		doc.PDFPath = *pdfPath
	}
	if qrcodeURL != nil {
		doc.QRCodeURL = *qrcodeURL
	}
	return &doc, nil
}
