package cfdi

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	domcfdi "github.com/jhoicas/ncingest/internal/domain/cfdi"
	"github.com/jhoicas/ncingest/internal/domain/entity"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser extrae una FiscalDocument de un CFDI de egreso.
// Todo documento que no cumple devuelve un *domcfdi.Rejection; nunca un registro parcial.
type Parser struct{}

// NewParser crea el parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse lee el XML y aplica, en orden: tipo de comprobante, atributos raíz, Conceptos,
// NREMISION, A_RELACION, Traslado y TimbreFiscalDigital.
func (p *Parser) Parse(raw []byte) (*entity.FiscalDocument, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(bytes.TrimPrefix(raw, utf8BOM)); err != nil {
		return nil, domcfdi.Reject(domcfdi.ReasonMalformedXML, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, domcfdi.Rejectf(domcfdi.ReasonMalformedXML, "documento sin raíz")
	}

	tipo := root.SelectAttrValue("TipoDeComprobante", "")
	if tipo != entity.TipoComprobanteEgreso {
		return nil, domcfdi.Rejectf(domcfdi.ReasonWrongType, "TipoDeComprobante %q", tipo)
	}

	fd := &entity.FiscalDocument{Type: tipo}
	if err := readRootAttributes(root, fd); err != nil {
		return nil, err
	}

	// Conceptos es hijo directo del comprobante; se conserva la descripción del último Concepto.
	conceptos := firstChild(root, NsCfdi, tagConceptos)
	if conceptos == nil {
		return nil, domcfdi.Reject(domcfdi.ReasonMissingConcepts, nil)
	}
	var last *etree.Element
	for _, c := range conceptos.ChildElements() {
		if matches(c, NsCfdi, tagConcepto) {
			last = c
		}
	}
	if last == nil {
		return nil, domcfdi.Rejectf(domcfdi.ReasonMissingConcepts, "Conceptos sin Concepto")
	}
	desc, err := requireAttr(last, "Descripcion")
	if err != nil {
		return nil, err
	}
	fd.ProductName = desc

	remision := firstDescendant(root, NsAddenda, tagNRemision)
	if remision == nil {
		return nil, domcfdi.Reject(domcfdi.ReasonMissingShipmentRef, nil)
	}
	if fd.Remision, fd.Tad, err = domcfdi.ExtractShipmentRef(remision.Text()); err != nil {
		return nil, err
	}

	relacion := firstDescendant(root, NsAddenda, tagARelacion)
	if relacion == nil {
		return nil, domcfdi.Reject(domcfdi.ReasonMissingRelationRef, nil)
	}
	if fd.Relation, err = domcfdi.ExtractRelation(relacion.Text()); err != nil {
		return nil, err
	}

	// Primer Traslado en orden de documento (el del primer concepto si lo tiene).
	traslado := firstDescendant(root, NsCfdi, tagTraslado)
	if traslado == nil {
		return nil, domcfdi.Reject(domcfdi.ReasonMissingTaxTransfer, nil)
	}
	if fd.Tax, err = requireDecimal(traslado, "Importe"); err != nil {
		return nil, err
	}

	timbre := firstDescendant(root, NsTimbre, tagTimbre)
	if timbre == nil {
		return nil, domcfdi.Reject(domcfdi.ReasonMissingStamp, nil)
	}
	if fd.FiscalFolio, err = requireAttr(timbre, "UUID"); err != nil {
		return nil, err
	}

	return fd, nil
}

func readRootAttributes(root *etree.Element, fd *entity.FiscalDocument) error {
	fecha, err := requireAttr(root, "Fecha")
	if err != nil {
		return err
	}
	if len(fecha) < 10 {
		return domcfdi.Rejectf(domcfdi.ReasonInvalidAttribute, "Fecha %q", fecha)
	}
	fd.Date, err = time.Parse("2006-01-02", fecha[:10])
	if err != nil {
		return domcfdi.Rejectf(domcfdi.ReasonInvalidAttribute, "Fecha %q: %v", fecha, err)
	}
	if fd.Total, err = requireDecimal(root, "Total"); err != nil {
		return err
	}
	if fd.Series, err = requireAttr(root, "Serie"); err != nil {
		return err
	}
	if fd.Folio, err = requireAttr(root, "Folio"); err != nil {
		return err
	}
	fd.CreditNoteNumber = entity.CreditNoteNumberOf(fd.Series, fd.Folio)
	return nil
}

func requireAttr(e *etree.Element, key string) (string, error) {
	a := e.SelectAttr(key)
	if a == nil || strings.TrimSpace(a.Value) == "" {
		return "", domcfdi.Rejectf(domcfdi.ReasonInvalidAttribute, "%s sin atributo %s", e.Tag, key)
	}
	return a.Value, nil
}

func requireDecimal(e *etree.Element, key string) (decimal.Decimal, error) {
	v, err := requireAttr(e, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, domcfdi.Rejectf(domcfdi.ReasonInvalidAttribute, "%s.%s=%q: %v", e.Tag, key, v, err)
	}
	return d, nil
}

// ── helpers de navegación ─────────────────────────────────────────────────────

func matches(e *etree.Element, ns, local string) bool {
	return e.Tag == local && e.NamespaceURI() == ns
}

func firstChild(e *etree.Element, ns, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if matches(c, ns, local) {
			return c
		}
	}
	return nil
}

// firstDescendant recorre en preorden, es decir en orden de documento.
func firstDescendant(e *etree.Element, ns, local string) *etree.Element {
	for _, c := range e.ChildElements() {
		if matches(c, ns, local) {
			return c
		}
		if f := firstDescendant(c, ns, local); f != nil {
			return f
		}
	}
	return nil
}

// charsetReader acepta CFDI declarados en Latin-1 o Windows-1252 (algunos PAC antiguos).
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	case "utf-8", "utf8":
		return input, nil
	}
	return nil, fmt.Errorf("charset no soportado: %s", charset)
}
