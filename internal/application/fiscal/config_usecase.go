package fiscal

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
)

var cnpjPattern = regexp.MustCompile(`^\d{14}$`)

// ConfigUseCase cadastro do emitente: leitura, atualização e upload do
// certificado A1. Toda escrita invalida o cache de configuração.
type ConfigUseCase struct {
	repo   repository.FiscalConfigRepository
	cache  *ConfigCache
	prober CertificateProber
}

func NewConfigUseCase(repo repository.FiscalConfigRepository, cache *ConfigCache, prober CertificateProber) *ConfigUseCase {
	return &ConfigUseCase{repo: repo, cache: cache, prober: prober}
}

// Get devolve a configuração ativa direto do banco (sem cache: a tela de
// cadastro precisa enxergar o que acabou de salvar).
func (u *ConfigUseCase) Get(ctx context.Context) (*entity.FiscalConfig, error) {
	return u.repo.GetActive(ctx)
}

// Save valida e grava a configuração do emitente. O certificado não entra por
// aqui: use UploadCertificate.
func (u *ConfigUseCase) Save(ctx context.Context, cfg *entity.FiscalConfig) error {
	if !cnpjPattern.MatchString(cfg.CNPJ) {
		return fmt.Errorf("%w: CNPJ deve ter 14 dígitos", domain.ErrInvalidInput)
	}
	if cfg.RazaoSocial == "" {
		return fmt.Errorf("%w: razão social é obrigatória", domain.ErrInvalidInput)
	}
	if cfg.Ambiente != "1" && cfg.Ambiente != "2" {
		return fmt.Errorf("%w: ambiente deve ser 1 (produção) ou 2 (homologação)", domain.ErrInvalidInput)
	}
	if cfg.SerieNFCe <= 0 {
		cfg.SerieNFCe = 1
	}
	if cfg.SerieNFe <= 0 {
		cfg.SerieNFe = 1
	}

	// Preserva o certificado já cadastrado quando a atualização não traz um.
	if existing, err := u.repo.GetActive(ctx); err == nil {
		cfg.ID = existing.ID
		if len(cfg.CertificadoP12) == 0 {
			cfg.CertificadoP12 = existing.CertificadoP12
			cfg.CertificadoSenha = existing.CertificadoSenha
			cfg.CertValidade = existing.CertValidade
		}
	} else if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	if err := u.repo.Save(ctx, cfg); err != nil {
		return err
	}
	u.cache.Invalidate()
	return nil
}

// UploadCertificate valida o blob PKCS#12 (decodificação + vencimento) antes
// de gravar. Um certificado que não abre com a senha informada nunca chega ao
// banco.
func (u *ConfigUseCase) UploadCertificate(ctx context.Context, p12Data []byte, password string) (time.Time, error) {
	if len(p12Data) == 0 {
		return time.Time{}, fmt.Errorf("%w: arquivo do certificado vazio", domain.ErrInvalidInput)
	}

	validade, err := u.prober.Validity(p12Data, password)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: certificado inválido ou senha incorreta", domain.ErrInvalidInput)
	}
	if time.Now().After(validade) {
		return time.Time{}, fmt.Errorf("%w: certificado vencido em %s", domain.ErrInvalidInput, validade.Format("02/01/2006"))
	}

	cfg, err := u.repo.GetActive(ctx)
	if err != nil {
		return time.Time{}, err
	}
	cfg.CertificadoP12 = p12Data
	cfg.CertificadoSenha = password
	cfg.CertValidade = validade

	if err := u.repo.Save(ctx, cfg); err != nil {
		return time.Time{}, err
	}
	u.cache.Invalidate()
	return validade, nil
}
