// Package nfe: interfaces para assinatura digital do XML da NF-e (XML-DSig enveloped).

package nfe

import (
	"crypto/rsa"
	"crypto/x509"
)

// Certificate é o par chave/certificado já decodificado do arquivo A1 (.pfx).
type Certificate struct {
	PrivateKey  *rsa.PrivateKey
	Certificate *x509.Certificate
}

// CertificateLoader decodifica um certificado PKCS#12 a partir do blob e senha
// guardados na configuração fiscal. Interface estreita para isolar a
// biblioteca de criptografia da lógica de assinatura.
type CertificateLoader interface {
	Load(p12Data []byte, password string) (*Certificate, error)
}

// Signer assina o XML da nota e devolve o XML com o nó Signature injetado
// antes do fechamento de </NFe>.
type Signer interface {
	// Sign recebe o XML sem assinatura e a chave de acesso (para a Reference
	// URI "#NFe<chave>") e retorna o XML assinado.
	Sign(xmlBytes []byte, accessKey string, cert *Certificate) ([]byte, error)
}
