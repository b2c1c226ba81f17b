package fiscal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/pix"
	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
	"github.com/jrrjunior25/erp-pdv/pkg/logger"
)

// PixChargeTTL validade da cobrança a partir da geração.
const PixChargeTTL = 30 * time.Minute

// PixRequest parâmetros da cobrança. Chave, nome e cidade, quando informados,
// sobrepõem a configuração fiscal; SaleID anexa a cobrança à venda.
type PixRequest struct {
	Amount       decimal.Decimal
	TxID         string
	SaleID       string
	Description  string
	MerchantName string
	MerchantCity string
	PixKey       string
}

// PixCharge é a cobrança PIX pronta para virar QR Code no PDV.
type PixCharge struct {
	BRCode    string    `json:"brCode"`
	TxID      string    `json:"txId"`
	Amount    string    `json:"amount"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PixUseCase gera cobranças BR Code a partir da configuração do emitente.
type PixUseCase struct {
	configCache *ConfigCache
	sales       repository.SaleRepository
	now         func() time.Time
	log         *logger.Logger
}

// NewPixUseCase cria o caso de uso. now == nil usa time.Now.
func NewPixUseCase(configCache *ConfigCache, sales repository.SaleRepository, now func() time.Time, log *logger.Logger) *PixUseCase {
	if now == nil {
		now = time.Now
	}
	return &PixUseCase{configCache: configCache, sales: sales, now: now, log: log}
}

// GenerateCharge monta o payload EMV da cobrança com validade de 30 minutos.
// O txid, quando não informado, vem do SaleID ou é gerado; a cobrança nunca
// sai sem identificador rastreável. Com SaleID, o BR Code e o txid são
// gravados na venda de origem.
func (u *PixUseCase) GenerateCharge(ctx context.Context, req PixRequest) (*PixCharge, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: valor da cobrança deve ser maior que zero", domain.ErrInvalidInput)
	}

	cfg, err := u.configCache.Get(ctx)
	if err != nil {
		return nil, err
	}

	key := req.PixKey
	if key == "" {
		key = cfg.PixChave
	}
	if key == "" {
		return nil, fmt.Errorf("%w: chave PIX não cadastrada na configuração fiscal", domain.ErrNoFiscalConfig)
	}

	merchant := firstNonEmpty(req.MerchantName, cfg.PixMerchant, cfg.RazaoSocial)
	city := firstNonEmpty(req.MerchantCity, cfg.PixCidade, cfg.Municipio)

	txid := pix.SanitizeTxID(firstNonEmpty(req.TxID, req.SaleID))
	if txid == pix.DefaultTxID {
		txid = newPixTxID()
	}

	code, err := pix.Encode(pix.Params{
		PixKey:       key,
		MerchantName: merchant,
		MerchantCity: city,
		Amount:       req.Amount,
		TxID:         txid,
		Description:  req.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := pix.Validate(code); err != nil {
		return nil, fmt.Errorf("BR Code gerado inválido: %w", err)
	}

	charge := &PixCharge{
		BRCode:    code,
		TxID:      txid,
		Amount:    req.Amount.StringFixed(2),
		ExpiresAt: u.now().Add(PixChargeTTL),
	}

	if req.SaleID != "" {
		if err := u.sales.SetPixCharge(ctx, req.SaleID, code, txid); err != nil {
			// A cobrança vale por si; a anotação na venda é conveniência.
			u.log.Warn().Str("venda", req.SaleID).Err(err).Msg("falha ao anexar cobrança PIX à venda")
		}
	}

	u.log.Info().Str("txid", txid).Str("valor", charge.Amount).Msg("cobrança PIX gerada")
	return charge, nil
}

// newPixTxID identificador aleatório de 25 caracteres para cobranças sem
// referência externa.
func newPixTxID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:25]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
