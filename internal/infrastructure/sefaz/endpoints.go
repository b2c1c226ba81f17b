// Package sefaz implementa o cliente SOAP dos webservices de autorização da
// NF-e/NFC-e (NFeAutorizacao4, NFeRetAutorizacao4, NfeStatusServico4).
package sefaz

import "fmt"

// Endpoints URLs dos webservices e da consulta pública do QR Code para uma
// combinação (UF, ambiente).
type Endpoints struct {
	Autorizacao    string
	RetAutorizacao string
	StatusServico  string
	QRCodeBase     string
}

type endpointKey struct {
	UF       string
	Ambiente string // "1" produção, "2" homologação
}

// endpointTable tabela de endpoints por UF e ambiente. Incluir uma nova UF é
// acrescentar entradas aqui; UFs atendidas pela SVRS apontam para o mesmo host.
var endpointTable = map[endpointKey]Endpoints{
	{"SP", "1"}: {
		Autorizacao:    "https://nfce.fazenda.sp.gov.br/ws/NFeAutorizacao4.asmx",
		RetAutorizacao: "https://nfce.fazenda.sp.gov.br/ws/NFeRetAutorizacao4.asmx",
		StatusServico:  "https://nfce.fazenda.sp.gov.br/ws/NFeStatusServico4.asmx",
		QRCodeBase:     "https://www.nfce.fazenda.sp.gov.br/qrcode",
	},
	{"SP", "2"}: {
		Autorizacao:    "https://homologacao.nfce.fazenda.sp.gov.br/ws/NFeAutorizacao4.asmx",
		RetAutorizacao: "https://homologacao.nfce.fazenda.sp.gov.br/ws/NFeRetAutorizacao4.asmx",
		StatusServico:  "https://homologacao.nfce.fazenda.sp.gov.br/ws/NFeStatusServico4.asmx",
		QRCodeBase:     "https://www.homologacao.nfce.fazenda.sp.gov.br/qrcode",
	},
	{"RS", "1"}: {
		Autorizacao:    "https://nfce.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
		RetAutorizacao: "https://nfce.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		StatusServico:  "https://nfce.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
		QRCodeBase:     "https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx",
	},
	{"RS", "2"}: {
		Autorizacao:    "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
		RetAutorizacao: "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		StatusServico:  "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
		QRCodeBase:     "https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx",
	},
	{"MG", "1"}: {
		Autorizacao:    "https://nfce.fazenda.mg.gov.br/nfce/services/NFeAutorizacao4",
		RetAutorizacao: "https://nfce.fazenda.mg.gov.br/nfce/services/NFeRetAutorizacao4",
		StatusServico:  "https://nfce.fazenda.mg.gov.br/nfce/services/NFeStatusServico4",
		QRCodeBase:     "https://nfce.fazenda.mg.gov.br/portalnfce/sistema/qrcode.xhtml",
	},
	{"MG", "2"}: {
		Autorizacao:    "https://hnfce.fazenda.mg.gov.br/nfce/services/NFeAutorizacao4",
		RetAutorizacao: "https://hnfce.fazenda.mg.gov.br/nfce/services/NFeRetAutorizacao4",
		StatusServico:  "https://hnfce.fazenda.mg.gov.br/nfce/services/NFeStatusServico4",
		QRCodeBase:     "https://hnfce.fazenda.mg.gov.br/portalnfce/sistema/qrcode.xhtml",
	},
	{"PR", "1"}: {
		Autorizacao:    "https://nfce.sefa.pr.gov.br/nfce/NFeAutorizacao4",
		RetAutorizacao: "https://nfce.sefa.pr.gov.br/nfce/NFeRetAutorizacao4",
		StatusServico:  "https://nfce.sefa.pr.gov.br/nfce/NFeStatusServico4",
		QRCodeBase:     "http://www.fazenda.pr.gov.br/nfce/qrcode",
	},
	{"PR", "2"}: {
		Autorizacao:    "https://homologacao.nfce.sefa.pr.gov.br/nfce/NFeAutorizacao4",
		RetAutorizacao: "https://homologacao.nfce.sefa.pr.gov.br/nfce/NFeRetAutorizacao4",
		StatusServico:  "https://homologacao.nfce.sefa.pr.gov.br/nfce/NFeStatusServico4",
		QRCodeBase:     "http://www.fazenda.pr.gov.br/nfce/qrcode",
	},
}

// EndpointsFor devolve os endpoints da UF/ambiente; UF sem entrada cai no
// endpoint de SP, que é o comportamento histórico do PDV.
func EndpointsFor(uf, ambiente string) Endpoints {
	if ep, ok := endpointTable[endpointKey{uf, ambiente}]; ok {
		return ep
	}
	return endpointTable[endpointKey{"SP", ambiente}]
}

// QRCodeURL monta a URL de consulta do QR Code da NFC-e.
func QRCodeURL(uf, ambiente, chave string) string {
	ep := EndpointsFor(uf, ambiente)
	return fmt.Sprintf("%s?chNFe=%s&nVersao=100&tpAmb=%s", ep.QRCodeBase, chave, ambiente)
}
