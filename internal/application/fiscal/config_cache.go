package fiscal

import (
	"context"
	"sync"
	"time"

	"github.com/jrrjunior25/erp-pdv/internal/domain/entity"
	"github.com/jrrjunior25/erp-pdv/internal/domain/repository"
)

// DefaultConfigTTL validade padrão do cache da configuração fiscal.
const DefaultConfigTTL = 60 * time.Second

// ConfigCache guarda a configuração fiscal ativa por um TTL, evitando uma
// ida ao banco (e a decodificação do blob do certificado) a cada emissão.
// O relógio é injetável para que os testes controlem a expiração sem dormir.
type ConfigCache struct {
	repo repository.FiscalConfigRepository
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	cached   *entity.FiscalConfig
	loadedAt time.Time
}

// NewConfigCache cria o cache. ttl <= 0 usa DefaultConfigTTL; now == nil usa time.Now.
func NewConfigCache(repo repository.FiscalConfigRepository, ttl time.Duration, now func() time.Time) *ConfigCache {
	if ttl <= 0 {
		ttl = DefaultConfigTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ConfigCache{repo: repo, ttl: ttl, now: now}
}

// Get devolve a configuração ativa, do cache se ainda válida.
// Erros do repositório (incluindo domain.ErrNoFiscalConfig) não são cacheados.
func (c *ConfigCache) Get(ctx context.Context) (*entity.FiscalConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.cached, nil
	}

	cfg, err := c.repo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	c.cached = cfg
	c.loadedAt = c.now()
	return cfg, nil
}

// Invalidate descarta a entrada cacheada. Chamado após salvar a configuração
// para que a próxima emissão enxergue os dados novos imediatamente.
func (c *ConfigCache) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
