// Package storage guarda os artefatos fiscais (XML autorizado, PDF) em disco,
// confinados ao diretório base: {base}/{tipo}/{ambiente}/{ano}/{mes}/{chave}.{ext}.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Tipos de artefato.
const (
	KindXML = "xml"
	KindPDF = "pdf"
)

// FileStore armazenamento local sandboxed dos documentos fiscais.
type FileStore struct {
	baseDir string
}

// NewFileStore cria o store ancorado no diretório base (resolvido para
// caminho absoluto na construção).
func NewFileStore(baseDir string) (*FileStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolver diretório base: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: criar diretório base: %w", err)
	}
	return &FileStore{baseDir: abs}, nil
}

// SaveXML grava o XML da nota e devolve o localizador relativo.
func (s *FileStore) SaveXML(chave, ambiente string, data []byte, emitidaEm time.Time) (string, error) {
	return s.save(KindXML, chave, ambiente, data, emitidaEm)
}

// SavePDF grava o PDF do documento auxiliar e devolve o localizador relativo.
func (s *FileStore) SavePDF(chave, ambiente string, data []byte, emitidaEm time.Time) (string, error) {
	return s.save(KindPDF, chave, ambiente, data, emitidaEm)
}

func (s *FileStore) save(kind, chave, ambiente string, data []byte, emitidaEm time.Time) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("storage: conteúdo vazio")
	}
	rel, err := s.locator(kind, chave, ambiente, emitidaEm)
	if err != nil {
		return "", err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: criar diretórios: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: gravar %s: %w", rel, err)
	}
	return rel, nil
}

// Load lê um artefato pelo localizador devolvido no save.
func (s *FileStore) Load(locator string) ([]byte, error) {
	full, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: artefato %s não encontrado", locator)
		}
		return nil, fmt.Errorf("storage: ler %s: %w", locator, err)
	}
	return data, nil
}

// Exists indica se o localizador aponta para um artefato gravado.
func (s *FileStore) Exists(locator string) bool {
	full, err := s.resolve(locator)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

// ListByPeriod lista os localizadores de um tipo no ano/mês dados, em ordem
// lexicográfica (que coincide com a ordem por chave).
func (s *FileStore) ListByPeriod(kind, ambiente string, year int, month time.Month) ([]string, error) {
	if kind != KindXML && kind != KindPDF {
		return nil, fmt.Errorf("storage: tipo de artefato inválido: %q", kind)
	}
	dir := filepath.Join(s.baseDir, kind, ambiente, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", int(month)))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: listar %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.ToSlash(filepath.Join(kind, ambiente,
			fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", int(month)), e.Name())))
	}
	sort.Strings(out)
	return out, nil
}

// locator monta o caminho relativo do artefato validando os componentes.
func (s *FileStore) locator(kind, chave, ambiente string, emitidaEm time.Time) (string, error) {
	if kind != KindXML && kind != KindPDF {
		return "", fmt.Errorf("storage: tipo de artefato inválido: %q", kind)
	}
	if ambiente != "1" && ambiente != "2" {
		return "", fmt.Errorf("storage: ambiente inválido: %q", ambiente)
	}
	clean := sanitizeKey(chave)
	if clean == "" || clean != chave {
		return "", fmt.Errorf("storage: chave com caracteres inválidos: %q", chave)
	}
	if emitidaEm.IsZero() {
		emitidaEm = time.Now()
	}
	return filepath.ToSlash(filepath.Join(
		kind, ambiente,
		fmt.Sprintf("%04d", emitidaEm.Year()),
		fmt.Sprintf("%02d", int(emitidaEm.Month())),
		clean+"."+kind,
	)), nil
}

// resolve converte o localizador em caminho absoluto e garante que continua
// dentro do diretório base. Qualquer tentativa de escape (.., caminho
// absoluto) é rejeitada antes de tocar o filesystem.
func (s *FileStore) resolve(locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("storage: localizador vazio")
	}
	if filepath.IsAbs(locator) || strings.HasPrefix(locator, "/") || strings.HasPrefix(locator, "\\") {
		return "", fmt.Errorf("storage: localizador absoluto não permitido: %q", locator)
	}
	full, err := filepath.Abs(filepath.Join(s.baseDir, filepath.FromSlash(locator)))
	if err != nil {
		return "", fmt.Errorf("storage: resolver caminho: %w", err)
	}
	if full != s.baseDir && !strings.HasPrefix(full, s.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: localizador fora do diretório base: %q", locator)
	}
	return full, nil
}

// sanitizeKey mantém apenas [A-Za-z0-9-].
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
