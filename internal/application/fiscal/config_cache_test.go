package fiscal_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrrjunior25/erp-pdv/internal/application/fiscal"
	"github.com/jrrjunior25/erp-pdv/internal/domain"
	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
)

// countingConfigRepo conta as idas ao "banco" para medir o efeito do cache.
type countingConfigRepo struct {
	mu    sync.Mutex
	cfg   *entity.FiscalConfig
	calls int
}

func (r *countingConfigRepo) GetActive(ctx context.Context) (*entity.FiscalConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.cfg == nil {
		return nil, domain.ErrNoFiscalConfig
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *countingConfigRepo) Save(ctx context.Context, cfg *entity.FiscalConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *cfg
	r.cfg = &cp
	return nil
}

func (r *countingConfigRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeClock relógio controlável pelos testes: nada de time.Sleep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestConfigCache_DentroDoTTLNaoVaiAoBanco(t *testing.T) {
	repo := &countingConfigRepo{cfg: testConfig(false)}
	clock := &fakeClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	cache := fiscal.NewConfigCache(repo, 60*time.Second, clock.Now)

	for i := 0; i < 5; i++ {
		cfg, err := cache.Get(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "11222333000181", cfg.CNPJ)
		clock.Advance(10 * time.Second)
	}

	assert.Equal(t, 1, repo.callCount(), "cinco leituras em 50s devem custar uma ida ao banco")
}

func TestConfigCache_ExpiraAposTTL(t *testing.T) {
	repo := &countingConfigRepo{cfg: testConfig(false)}
	clock := &fakeClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	cache := fiscal.NewConfigCache(repo, 60*time.Second, clock.Now)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	clock.Advance(61 * time.Second)
	_, err = cache.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, repo.callCount(), "após o TTL a leitura deve recarregar")
}

func TestConfigCache_InvalidateForcaRecarga(t *testing.T) {
	repo := &countingConfigRepo{cfg: testConfig(false)}
	clock := &fakeClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	cache := fiscal.NewConfigCache(repo, 60*time.Second, clock.Now)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	updated := testConfig(false)
	updated.RazaoSocial = "NOVA RAZAO LTDA"
	require.NoError(t, repo.Save(context.Background(), updated))

	// Sem Invalidate ainda vê o valor antigo.
	cfg, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "LOJA TESTE LTDA", cfg.RazaoSocial)

	cache.Invalidate()
	cfg, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "NOVA RAZAO LTDA", cfg.RazaoSocial)
}

func TestConfigCache_ErroNaoEhCacheado(t *testing.T) {
	repo := &countingConfigRepo{}
	clock := &fakeClock{now: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)}
	cache := fiscal.NewConfigCache(repo, 60*time.Second, clock.Now)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoFiscalConfig)

	// Configuração aparece: a próxima leitura deve enxergá-la na hora.
	require.NoError(t, repo.Save(context.Background(), testConfig(false)))
	cfg, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", cfg.CNPJ)
}
