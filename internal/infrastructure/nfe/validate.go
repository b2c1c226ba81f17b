package nfe

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// ErrInvalidDocument agrupa erros de estrutura do XML da nota.
var ErrInvalidDocument = errors.New("documento fiscal inválido")

// requiredGroups blocos obrigatórios do infNFe no layout 4.00.
var requiredGroups = []string{"ide", "emit", "det", "total", "pag"}

// ValidateStructure confere a presença dos blocos obrigatórios do layout 4.00
// antes da assinatura/transmissão. Não substitui a validação de schema da
// SEFAZ; serve para barrar documentos truncados antes de gastar uma chamada
// de webservice.
func (s *XMLBuilderService) ValidateStructure(xmlBytes []byte, modelo string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return fmt.Errorf("%w: XML malformado: %v", ErrInvalidDocument, err)
	}

	root := doc.FindElement("//NFe")
	if root == nil {
		root = doc.Root()
	}
	if root == nil {
		return fmt.Errorf("%w: elemento NFe ausente", ErrInvalidDocument)
	}

	infNFe := root.FindElement("infNFe")
	if infNFe == nil {
		return fmt.Errorf("%w: elemento infNFe ausente", ErrInvalidDocument)
	}

	var errs []error
	id := infNFe.SelectAttrValue("Id", "")
	if len(id) != 3+nfe.AccessKeyLength {
		errs = append(errs, fmt.Errorf("atributo Id do infNFe ausente ou com tamanho inválido: %q", id))
	} else if err := nfe.ValidateAccessKey(id[3:]); err != nil {
		errs = append(errs, fmt.Errorf("chave de acesso do Id inválida: %w", err))
	}

	for _, tag := range requiredGroups {
		if infNFe.FindElement(tag) == nil {
			errs = append(errs, fmt.Errorf("bloco obrigatório %s ausente", tag))
		}
	}
	if modelo == nfe.ModeloNFe && infNFe.FindElement("dest") == nil {
		errs = append(errs, fmt.Errorf("NF-e (modelo 55) exige o bloco dest"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidDocument}, errs...)...)
	}
	return nil
}

// ExtractAccessKey lê a chave de acesso do atributo Id de um XML de nota.
// Falha com erro explícito quando o atributo está ausente ou inválido; nunca
// sintetiza uma chave substituta.
func ExtractAccessKey(xmlBytes []byte) (string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return "", fmt.Errorf("nfe: XML malformado: %w", err)
	}
	infNFe := doc.FindElement("//infNFe")
	if infNFe == nil {
		return "", fmt.Errorf("nfe: elemento infNFe ausente")
	}
	id := infNFe.SelectAttrValue("Id", "")
	if len(id) != 3+nfe.AccessKeyLength {
		return "", fmt.Errorf("nfe: atributo Id ausente ou truncado: %q", id)
	}
	key := id[3:]
	if err := nfe.ValidateAccessKey(key); err != nil {
		return "", err
	}
	return key, nil
}
