// certinfo diagnostica um certificado A1 (.pfx/.p12) antes do upload:
// verifica se o arquivo abre com a senha informada e imprime o titular e a
// validade. Útil quando a SEFAZ rejeita a assinatura e a dúvida é o certificado.
//
// Uso: go run ./cmd/certinfo <caminho/certificado.pfx> <senha>
package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: certinfo <certificado.pfx> <senha>")
		os.Exit(2)
	}
	certPath := os.Args[1]
	certPass := os.Args[2]

	p12Data, err := os.ReadFile(certPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "não foi possível ler %s: %v\n", certPath, err)
		os.Exit(1)
	}
	fmt.Printf("arquivo: %s (%d bytes)\n", certPath, len(p12Data))

	priv, cert, err := pkcs12.Decode(p12Data, certPass)
	if err != nil {
		fmt.Fprintf(os.Stderr, "falha ao decodificar PKCS#12 (senha incorreta ou arquivo corrompido): %v\n", err)
		os.Exit(1)
	}
	if priv == nil {
		fmt.Fprintln(os.Stderr, "o arquivo não contém chave privada")
		os.Exit(1)
	}

	fmt.Printf("titular:  %s\n", cert.Subject.CommonName)
	fmt.Printf("emissor:  %s\n", cert.Issuer.CommonName)
	fmt.Printf("validade: %s a %s\n",
		cert.NotBefore.Format("02/01/2006"), cert.NotAfter.Format("02/01/2006"))

	if time.Now().After(cert.NotAfter) {
		fmt.Println("ATENÇÃO: certificado VENCIDO")
		os.Exit(1)
	}
	fmt.Printf("dias restantes: %d\n", int(time.Until(cert.NotAfter).Hours()/24))
}
