package sepa

import "encoding/xml"

// Namespace of the customer credit transfer initiation message
const Namespace = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"

type document struct {
	XMLName  xml.Name         `xml:"Document"`
	Xmlns    string           `xml:"xmlns,attr"`
	Initiate creditTransferIn `xml:"CstmrCdtTrfInitn"`
}

type creditTransferIn struct {
	GroupHeader groupHeader `xml:"GrpHdr"`
	PaymentInfo paymentInfo `xml:"PmtInf"`
}

type groupHeader struct {
	MessageID      string `xml:"MsgId"`
	CreatedAt      string `xml:"CreDtTm"`
	NbOfTxs        int    `xml:"NbOfTxs"`
	ControlSum     string `xml:"CtrlSum"`
	InitiatingName string `xml:"InitgPty>Nm"`
}

type paymentInfo struct {
	PaymentInfoID string        `xml:"PmtInfId"`
	Method        string        `xml:"PmtMtd"`
	NbOfTxs       int           `xml:"NbOfTxs"`
	ControlSum    string        `xml:"CtrlSum"`
	ServiceLevel  string        `xml:"PmtTpInf>SvcLvl>Cd"`
	ExecutionDate string        `xml:"ReqdExctnDt"`
	DebtorName    string        `xml:"Dbtr>Nm"`
	DebtorIBAN    string        `xml:"DbtrAcct>Id>IBAN"`
	DebtorBIC     string        `xml:"DbtrAgt>FinInstnId>BIC"`
	ChargeBearer  string        `xml:"ChrgBr"`
	Transfers     []transferTxn `xml:"CdtTrfTxInf"`
}

type transferTxn struct {
	EndToEndID   string        `xml:"PmtId>EndToEndId"`
	Amount       instructedAmt `xml:"Amt>InstdAmt"`
	CreditorBIC  string        `xml:"CdtrAgt>FinInstnId>BIC"`
	CreditorName string        `xml:"Cdtr>Nm"`
	CreditorIBAN string        `xml:"CdtrAcct>Id>IBAN"`
	Remittance   string        `xml:"RmtInf>Ustrd"`
}

type instructedAmt struct {
	Currency string `xml:"Ccy,attr"`
	Value    string `xml:",chardata"`
}
