// Package cfdi contiene las reglas de dominio para notas de crédito CFDI (México):
// motivos de rechazo y extracción de referencias de embarque desde las addendas del proveedor.
package cfdi

import (
	"errors"
	"fmt"
)

// Reason motivo por el que un documento no produce una nota de crédito.
type Reason string

const (
	ReasonMalformedXML       Reason = "malformed_xml"
	ReasonWrongType          Reason = "wrong_type"
	ReasonInvalidAttribute   Reason = "invalid_attribute"
	ReasonMissingConcepts    Reason = "missing_concepts"
	ReasonMissingShipmentRef Reason = "missing_shipment_ref"
	ReasonShipmentRefFormat  Reason = "shipment_ref_format"
	ReasonMissingRelationRef Reason = "missing_relation_ref"
	ReasonRelationRefFormat  Reason = "relation_ref_format"
	ReasonMissingTaxTransfer Reason = "missing_tax_transfer"
	ReasonMissingStamp       Reason = "missing_stamp"
)

// Expected indica que el rechazo es un salto normal (no es error): comprobantes que no son de egreso.
func (r Reason) Expected() bool {
	return r == ReasonWrongType
}

// Rejection resultado de un documento descartado por el parser.
type Rejection struct {
	Reason Reason
	Err    error
}

// Reject construye un rechazo con detalle opcional.
func Reject(reason Reason, err error) *Rejection {
	return &Rejection{Reason: reason, Err: err}
}

// Rejectf construye un rechazo con detalle formateado.
func Rejectf(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Err: fmt.Errorf(format, args...)}
}

func (r *Rejection) Error() string {
	if r.Err == nil {
		return "cfdi: " + string(r.Reason)
	}
	return fmt.Sprintf("cfdi: %s: %v", r.Reason, r.Err)
}

func (r *Rejection) Unwrap() error { return r.Err }

// ReasonOf extrae el motivo de rechazo de err, si lo tiene.
func ReasonOf(err error) (Reason, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
