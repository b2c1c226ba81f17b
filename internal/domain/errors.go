package domain

import "errors"

// Erros de domínio (sem dependências externas).
var (
	ErrNotFound          = errors.New("recurso não encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("não autorizado")
	ErrConflict          = errors.New("conflito com o estado atual")
	ErrNoFiscalConfig    = errors.New("configuração fiscal não cadastrada")
	ErrSaleAlreadyFiscal = errors.New("venda já possui documento fiscal emitido")
	ErrSefazUnavailable  = errors.New("SEFAZ indisponível")
)
