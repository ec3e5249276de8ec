package facturx

import "encoding/xml"

// Namespaces of the UN/CEFACT Cross Industry Invoice D16B schema
const (
	NamespaceRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NamespaceRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NamespaceUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
)

// Guideline identifies the EN 16931 (Factur-X EN16931) profile
const Guideline = "urn:cen.eu:en16931:2017"

type crossIndustryInvoice struct {
	XMLName     xml.Name          `xml:"rsm:CrossIndustryInvoice"`
	XmlnsRSM    string            `xml:"xmlns:rsm,attr"`
	XmlnsRAM    string            `xml:"xmlns:ram,attr"`
	XmlnsUDT    string            `xml:"xmlns:udt,attr"`
	Context     string            `xml:"rsm:ExchangedDocumentContext>ram:GuidelineSpecifiedDocumentContextParameter>ram:ID"`
	Document    exchangedDocument `xml:"rsm:ExchangedDocument"`
	Transaction tradeTransaction  `xml:"rsm:SupplyChainTradeTransaction"`
}

type exchangedDocument struct {
	ID        string     `xml:"ram:ID"`
	TypeCode  string     `xml:"ram:TypeCode"`
	IssueDate dateString `xml:"ram:IssueDateTime>udt:DateTimeString"`
}

type dateString struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

type tradeTransaction struct {
	Items      []lineItem       `xml:"ram:IncludedSupplyChainTradeLineItem"`
	Agreement  headerAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	Delivery   struct{}         `xml:"ram:ApplicableHeaderTradeDelivery"`
	Settlement headerSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

type lineItem struct {
	LineID     string         `xml:"ram:AssociatedDocumentLineDocument>ram:LineID"`
	Product    string         `xml:"ram:SpecifiedTradeProduct>ram:Name"`
	NetPrice   string         `xml:"ram:SpecifiedLineTradeAgreement>ram:NetPriceProductTradePrice>ram:ChargeAmount"`
	Quantity   quantity       `xml:"ram:SpecifiedLineTradeDelivery>ram:BilledQuantity"`
	Settlement lineSettlement `xml:"ram:SpecifiedLineTradeSettlement"`
}

type quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type lineSettlement struct {
	Tax       lineTax `xml:"ram:ApplicableTradeTax"`
	LineTotal string  `xml:"ram:SpecifiedTradeSettlementLineMonetarySummation>ram:LineTotalAmount"`
}

type lineTax struct {
	TypeCode     string `xml:"ram:TypeCode"`
	CategoryCode string `xml:"ram:CategoryCode"`
	RatePercent  string `xml:"ram:RateApplicablePercent"`
}

type headerAgreement struct {
	Seller tradeParty `xml:"ram:SellerTradeParty"`
	Buyer  tradeParty `xml:"ram:BuyerTradeParty"`
}

type tradeParty struct {
	Name         string        `xml:"ram:Name"`
	Organization *organization `xml:"ram:SpecifiedLegalOrganization,omitempty"`
}

type organization struct {
	ID schemedID `xml:"ram:ID"`
}

type schemedID struct {
	SchemeID string `xml:"schemeID,attr"`
	Value    string `xml:",chardata"`
}

type headerSettlement struct {
	Currency     string        `xml:"ram:InvoiceCurrencyCode"`
	PaymentMeans *paymentMeans `xml:"ram:SpecifiedTradeSettlementPaymentMeans,omitempty"`
	Taxes        []headerTax   `xml:"ram:ApplicableTradeTax"`
	Summation    summation     `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type paymentMeans struct {
	TypeCode string `xml:"ram:TypeCode"`
	IBAN     string `xml:"ram:PayeePartyCreditorFinancialAccount>ram:IBANID"`
	BIC      string `xml:"ram:PayeeSpecifiedCreditorFinancialInstitution>ram:BICID,omitempty"`
}

type headerTax struct {
	Calculated      string `xml:"ram:CalculatedAmount"`
	TypeCode        string `xml:"ram:TypeCode"`
	ExemptionReason string `xml:"ram:ExemptionReason,omitempty"`
	Basis           string `xml:"ram:BasisAmount"`
	CategoryCode    string `xml:"ram:CategoryCode"`
	RatePercent     string `xml:"ram:RateApplicablePercent"`
}

type summation struct {
	LineTotal  string   `xml:"ram:LineTotalAmount"`
	TaxBasis   string   `xml:"ram:TaxBasisTotalAmount"`
	TaxTotal   currency `xml:"ram:TaxTotalAmount"`
	GrandTotal string   `xml:"ram:GrandTotalAmount"`
	DuePayable string   `xml:"ram:DuePayableAmount"`
}

type currency struct {
	ID    string `xml:"currencyID,attr"`
	Value string `xml:",chardata"`
}
