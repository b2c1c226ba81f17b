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

// FiscalConfigRepository implementação PostgreSQL da configuração do emitente.
// Há no máximo um registro com ativo = true; Save faz o upsert desse registro.
type FiscalConfigRepository struct {
	db Querier
}

var _ repository.FiscalConfigRepository = (*FiscalConfigRepository)(nil)

func NewFiscalConfigRepository(db Querier) *FiscalConfigRepository {
	return &FiscalConfigRepository{db: db}
}

func (r *FiscalConfigRepository) GetActive(ctx context.Context) (*entity.FiscalConfig, error) {
	query := `
		SELECT id, cnpj, razao_social, nome_fantasia, ie, crt,
		       logradouro, numero, bairro, municipio, cod_municipio, uf, cep,
		       ambiente, serie_nfce, serie_nfe,
		       csc_id, csc_token,
		       certificado_p12, certificado_senha, cert_validade,
		       pix_chave, pix_merchant, pix_cidade,
		       ativo, created_at, updated_at
		FROM fiscal_config
		WHERE ativo = true
		ORDER BY updated_at DESC
		LIMIT 1`

	var cfg entity.FiscalConfig
	var nomeFantasia, cscID, cscToken, certSenha, pixChave, pixMerchant, pixCidade *string

	err := r.db.QueryRow(ctx, query).Scan(
		&cfg.ID, &cfg.CNPJ, &cfg.RazaoSocial, &nomeFantasia, &cfg.IE, &cfg.CRT,
		&cfg.Logradouro, &cfg.Numero, &cfg.Bairro, &cfg.Municipio, &cfg.CodMunicipio, &cfg.UF, &cfg.CEP,
		&cfg.Ambiente, &cfg.SerieNFCe, &cfg.SerieNFe,
		&cscID, &cscToken,
		&cfg.CertificadoP12, &certSenha, &cfg.CertValidade,
		&pixChave, &pixMerchant, &pixCidade,
		&cfg.Ativo, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoFiscalConfig
		}
		return nil, fmt.Errorf("buscar configuração fiscal: %w", err)
	}

	if nomeFantasia != nil {
		cfg.NomeFantasia = *nomeFantasia
	}
	if cscID != nil {
		cfg.CSCID = *cscID
	}
	if cscToken != nil {
		cfg.CSCToken = *cscToken
	}
	if certSenha != nil {
		cfg.CertificadoSenha = *certSenha
	}
	if pixChave != nil {
		cfg.PixChave = *pixChave
	}
	if pixMerchant != nil {
		cfg.PixMerchant = *pixMerchant
	}
	if pixCidade != nil {
		cfg.PixCidade = *pixCidade
	}
	return &cfg, nil
}

func (r *FiscalConfigRepository) Save(ctx context.Context, cfg *entity.FiscalConfig) error {
	query := `
		INSERT INTO fiscal_config (
			id, cnpj, razao_social, nome_fantasia, ie, crt,
			logradouro, numero, bairro, municipio, cod_municipio, uf, cep,
			ambiente, serie_nfce, serie_nfe,
			csc_id, csc_token,
			certificado_p12, certificado_senha, cert_validade,
			pix_chave, pix_merchant, pix_cidade,
			ativo
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16,
			$17, $18,
			$19, $20, $21,
			$22, $23, $24,
			true
		)
		ON CONFLICT (id) DO UPDATE SET
			cnpj              = EXCLUDED.cnpj,
			razao_social      = EXCLUDED.razao_social,
			nome_fantasia     = EXCLUDED.nome_fantasia,
			ie                = EXCLUDED.ie,
			crt               = EXCLUDED.crt,
			logradouro        = EXCLUDED.logradouro,
			numero            = EXCLUDED.numero,
			bairro            = EXCLUDED.bairro,
			municipio         = EXCLUDED.municipio,
			cod_municipio     = EXCLUDED.cod_municipio,
			uf                = EXCLUDED.uf,
			cep               = EXCLUDED.cep,
			ambiente          = EXCLUDED.ambiente,
			serie_nfce        = EXCLUDED.serie_nfce,
			serie_nfe         = EXCLUDED.serie_nfe,
			csc_id            = EXCLUDED.csc_id,
			csc_token         = EXCLUDED.csc_token,
			certificado_p12   = EXCLUDED.certificado_p12,
			certificado_senha = EXCLUDED.certificado_senha,
			cert_validade     = EXCLUDED.cert_validade,
			pix_chave         = EXCLUDED.pix_chave,
			pix_merchant      = EXCLUDED.pix_merchant,
			pix_cidade        = EXCLUDED.pix_cidade,
			ativo             = true,
			updated_at        = NOW()
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		cfg.ID, cfg.CNPJ, cfg.RazaoSocial, nullIfEmpty(cfg.NomeFantasia), cfg.IE, cfg.CRT,
		cfg.Logradouro, cfg.Numero, cfg.Bairro, cfg.Municipio, cfg.CodMunicipio, cfg.UF, cfg.CEP,
		cfg.Ambiente, cfg.SerieNFCe, cfg.SerieNFe,
		nullIfEmpty(cfg.CSCID), nullIfEmpty(cfg.CSCToken),
		cfg.CertificadoP12, nullIfEmpty(cfg.CertificadoSenha), cfg.CertValidade,
		nullIfEmpty(cfg.PixChave), nullIfEmpty(cfg.PixMerchant), nullIfEmpty(cfg.PixCidade),
	).Scan(&cfg.CreatedAt, &cfg.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: CNPJ %s já cadastrado", domain.ErrDuplicate, cfg.CNPJ)
		}
		return fmt.Errorf("salvar configuração fiscal: %w", err)
	}
	cfg.Ativo = true
	return nil
}
