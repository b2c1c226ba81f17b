// Serviço de assinatura XML-DSig enveloped da NF-e/NFC-e.
// Assina o fragmento infNFe e injeta <Signature> como último filho de <NFe>.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// DigitalSignatureService implementa pkg/nfe.Signer.
type DigitalSignatureService struct{}

// NewDigitalSignatureService cria o serviço.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign assina o XML da nota. Qualquer falha aborta a emissão: um XML sem
// assinatura nunca deve seguir para a SEFAZ.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, accessKey string, cert *nfe.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("signer: XML vazio")
	}
	if cert == nil || cert.PrivateKey == nil || cert.Certificate == nil {
		return nil, fmt.Errorf("signer: certificado incompleto")
	}
	if err := nfe.ValidateAccessKey(accessKey); err != nil {
		return nil, fmt.Errorf("signer: chave de acesso da Reference inválida: %w", err)
	}

	// 1) Fragmento infNFe canonicalizado e digest SHA-256.
	fragment, err := extractInfNFe(xmlBytes)
	if err != nil {
		return nil, err
	}
	canonicalFragment, err := canonicalizeXML(fragment)
	if err != nil {
		return nil, fmt.Errorf("signer: canonicalizar infNFe: %w", err)
	}
	digest := sha256.Sum256(canonicalFragment)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	// 2) SignedInfo canonicalizado, assinado com RSA-SHA256.
	signedInfoXML := buildSignedInfo(accessKey, digestB64)
	canonicalSignedInfo, err := canonicalizeXML([]byte(signedInfoXML))
	if err != nil {
		return nil, fmt.Errorf("signer: canonicalizar SignedInfo: %w", err)
	}
	signHash := sha256.Sum256(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(nil, cert.PrivateKey, crypto.SHA256, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("signer: assinar SignedInfo: %w", err)
	}
	signatureValueB64 := base64.StdEncoding.EncodeToString(signatureValue)

	// 3) KeyInfo com o certificado em Base64.
	certB64 := base64.StdEncoding.EncodeToString(cert.Certificate.Raw)
	signatureXML := buildSignature(signedInfoXML, signatureValueB64, certB64)

	// 4) Injetar a assinatura como último filho de <NFe>.
	return injectSignature(xmlBytes, signatureXML)
}

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// extractInfNFe devolve o fragmento infNFe serializado, com o namespace da
// NF-e declarado para que a canonicalização seja a mesma da validação SEFAZ.
func extractInfNFe(xmlBytes []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("signer: parsear XML: %w", err)
	}
	infNFe := doc.FindElement("//infNFe")
	if infNFe == nil {
		return nil, fmt.Errorf("signer: elemento infNFe ausente")
	}
	clone := infNFe.Copy()
	if clone.SelectAttr("xmlns") == nil {
		clone.CreateAttr("xmlns", "http://www.portalfiscal.inf.br/nfe")
	}
	frag := etree.NewDocument()
	frag.SetRoot(clone)
	out, err := frag.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("signer: serializar infNFe: %w", err)
	}
	return out, nil
}

func buildSignedInfo(accessKey, digestB64 string) string {
	uri := "#" + ReferenceIDPrefix + accessKey
	var sb strings.Builder
	sb.WriteString(`<SignedInfo xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"/>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA256 + `"/>`)
	sb.WriteString(`<Reference URI="` + uri + `">`)
	sb.WriteString(`<Transforms><Transform Algorithm="` + TransformEnveloped + `"/>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"/></Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA256 + `"/>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference>`)
	sb.WriteString(`</SignedInfo>`)
	return sb.String()
}

func buildSignature(signedInfoXML, signatureValueB64, certB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(signedInfoXML)
	sb.WriteString(`<SignatureValue>` + signatureValueB64 + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + certB64 + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)
	return sb.String()
}

func injectSignature(xmlBytes []byte, signatureXML string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("signer: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "NFe" {
		return nil, fmt.Errorf("signer: elemento raiz NFe ausente")
	}
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(signatureXML); err != nil {
		return nil, fmt.Errorf("signer: parsear Signature: %w", err)
	}
	sigRoot := sigDoc.Root()
	if sigRoot == nil {
		return nil, fmt.Errorf("signer: Signature vazia")
	}
	root.AddChild(sigRoot)

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("signer: serializar XML assinado: %w", err)
	}
	return out.Bytes(), nil
}

var _ nfe.Signer = (*DigitalSignatureService)(nil)
