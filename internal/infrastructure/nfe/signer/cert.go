// Decodificação do certificado A1 (PKCS#12) guardado na configuração fiscal.

package signer

import (
	"crypto/rsa"
	"fmt"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jrrjunior25/erp-pdv/pkg/nfe"
)

// P12Loader implementa nfe.CertificateLoader sobre golang.org/x/crypto/pkcs12.
type P12Loader struct{}

// NewP12Loader cria o loader.
func NewP12Loader() *P12Loader {
	return &P12Loader{}
}

// Load decodifica o blob .pfx/.p12 com a senha informada.
// A senha pode ser vazia se o arquivo não estiver protegido.
func (l *P12Loader) Load(p12Data []byte, password string) (*nfe.Certificate, error) {
	if len(p12Data) == 0 {
		return nil, fmt.Errorf("signer: certificado vazio")
	}
	priv, cert, err := pkcs12.Decode(p12Data, password)
	if err != nil {
		return nil, fmt.Errorf("signer: decodificar p12: %w", err)
	}
	rsaKey, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("signer: o certificado deve conter chave privada RSA")
	}
	return &nfe.Certificate{PrivateKey: rsaKey, Certificate: cert}, nil
}

// Validity devolve a validade do certificado decodificado e um erro se já
// estiver vencido. Usado na validação do upload de certificado.
func (l *P12Loader) Validity(p12Data []byte, password string) (time.Time, error) {
	cert, err := l.Load(p12Data, password)
	if err != nil {
		return time.Time{}, err
	}
	notAfter := cert.Certificate.NotAfter
	if time.Now().After(notAfter) {
		return notAfter, fmt.Errorf("signer: certificado vencido em %s", notAfter.Format("2006-01-02"))
	}
	return notAfter, nil
}

var _ nfe.CertificateLoader = (*P12Loader)(nil)
