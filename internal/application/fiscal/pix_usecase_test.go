package fiscal_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrrjunior25/erp-pdv/internal/application/fiscal"
	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	"github.com/jrrjunior25/erp-pdv/internal/domain/pix"
	"github.com/jrrjunior25/erp-pdv/pkg/logger"
)

func buildPixUseCase(t *testing.T, cfg *entity.FiscalConfig, now func() time.Time, sales ...*entity.Sale) (*fiscal.PixUseCase, *fakeSaleRepo) {
	t.Helper()

	saleRepo := newFakeSaleRepo(sales...)
	cache := fiscal.NewConfigCache(&fakeConfigRepo{cfg: cfg}, time.Minute, nil)
	log := logger.New(logger.Config{Env: "development", Level: "fatal"})
	return fiscal.NewPixUseCase(cache, saleRepo, now, log), saleRepo
}

func pixConfig() *entity.FiscalConfig {
	cfg := testConfig(false)
	cfg.PixChave = "11222333000181"
	cfg.PixMerchant = "LOJA TESTE"
	cfg.PixCidade = "SAO PAULO"
	return cfg
}

func TestGenerateCharge_SemTxIDGeraIdentificador(t *testing.T) {
	uc, _ := buildPixUseCase(t, pixConfig(), nil)

	charge, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{
		Amount: decimal.NewFromFloat(25.00),
	})
	require.NoError(t, err)

	assert.NotEqual(t, pix.DefaultTxID, charge.TxID, "cobrança avulsa nunca sai com txid de preenchimento")
	assert.NotEmpty(t, charge.TxID)
	assert.LessOrEqual(t, len(charge.TxID), 25)
	assert.Contains(t, charge.BRCode, charge.TxID)
	require.NoError(t, pix.Validate(charge.BRCode))
}

func TestGenerateCharge_ValidadeDeTrintaMinutos(t *testing.T) {
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	uc, _ := buildPixUseCase(t, pixConfig(), func() time.Time { return base })

	charge, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{
		Amount: decimal.NewFromFloat(10.00),
	})
	require.NoError(t, err)

	assert.Equal(t, base.Add(30*time.Minute), charge.ExpiresAt)
}

func TestGenerateCharge_ValorNaoPositivoRejeitado(t *testing.T) {
	uc, _ := buildPixUseCase(t, pixConfig(), nil)

	_, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{Amount: decimal.Zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.GenerateCharge(context.Background(), fiscal.PixRequest{Amount: decimal.NewFromFloat(-1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGenerateCharge_SemChaveConfigurada(t *testing.T) {
	cfg := pixConfig()
	cfg.PixChave = ""
	uc, _ := buildPixUseCase(t, cfg, nil)

	_, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{Amount: decimal.NewFromFloat(5)})
	assert.ErrorIs(t, err, domain.ErrNoFiscalConfig)
}

func TestGenerateCharge_SobreposicoesDaRequisicao(t *testing.T) {
	uc, _ := buildPixUseCase(t, pixConfig(), nil)

	charge, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{
		Amount:       decimal.NewFromFloat(99.90),
		MerchantName: "BARRACA DO ZE",
		MerchantCity: "CAMPINAS",
		PixKey:       "ze@exemplo.com.br",
		Description:  "Pedido 42",
	})
	require.NoError(t, err)

	assert.Contains(t, charge.BRCode, "BARRACA DO ZE")
	assert.Contains(t, charge.BRCode, "CAMPINAS")
	assert.Contains(t, charge.BRCode, "ze@exemplo.com.br")
	assert.Contains(t, charge.BRCode, "PEDIDO 42")
	assert.NotContains(t, charge.BRCode, "LOJA TESTE")
}

func TestGenerateCharge_SaleIDVinculaCobrancaNaVenda(t *testing.T) {
	sale := testSale("sale-1")
	uc, repo := buildPixUseCase(t, pixConfig(), nil, sale)

	charge, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{
		Amount: decimal.NewFromFloat(25.00),
		SaleID: "sale-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "sale1", charge.TxID, "o txid deriva do saleId saneado")

	got, err := repo.GetByID(context.Background(), "sale-1")
	require.NoError(t, err)
	assert.Equal(t, charge.BRCode, got.PixQRCode)
	assert.Equal(t, charge.TxID, got.PixTxID)
}

func TestGenerateCharge_FalhaAoAnexarNaVendaNaoDerrubaCobranca(t *testing.T) {
	uc, repo := buildPixUseCase(t, pixConfig(), nil)
	repo.pixErr = domain.ErrNotFound

	charge, err := uc.GenerateCharge(context.Background(), fiscal.PixRequest{
		Amount: decimal.NewFromFloat(25.00),
		SaleID: "venda-inexistente",
	})
	require.NoError(t, err, "a anotação na venda é melhor esforço")
	assert.NotEmpty(t, charge.BRCode)
}
