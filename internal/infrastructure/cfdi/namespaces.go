// Package cfdi lee notas de crédito CFDI 4.0 (SAT, México) con sus addendas de proveedor
// y extrae los campos de negocio que alimentan la tabla de notas de crédito.
package cfdi

// Namespaces del comprobante, del complemento de timbrado y de la addenda del proveedor.
const (
	NsCfdi    = "http://www.sat.gob.mx/cfd/4"
	NsTimbre  = "http://www.sat.gob.mx/TimbreFiscalDigital"
	NsAddenda = "http://pemex.com/facturaelectronica/addenda/v2"
)

// Nombres locales de los nodos consultados.
const (
	tagConceptos = "Conceptos"
	tagConcepto  = "Concepto"
	tagTraslado  = "Traslado"
	tagTimbre    = "TimbreFiscalDigital"
	tagNRemision = "NREMISION"
	tagARelacion = "A_RELACION"
)
