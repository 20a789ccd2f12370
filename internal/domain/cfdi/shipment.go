package cfdi

import (
	"regexp"
	"strings"
)

var (
	trailingDigits = regexp.MustCompile(`(\d+)$`)
	tadDigits      = regexp.MustCompile(`RC-(\d+)`)
)

// normalizeAddendaText elimina los dobles espacios con que el proveedor rellena las addendas.
func normalizeAddendaText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "  ", ""))
}

// ExtractShipmentRef obtiene de NREMISION la remisión (dígitos finales) y el TAD (dígitos tras "RC-").
// Si alguno de los dos patrones no aparece devuelve un rechazo ReasonShipmentRefFormat.
func ExtractShipmentRef(text string) (remision, tad string, err error) {
	s := normalizeAddendaText(text)
	m := trailingDigits.FindStringSubmatch(s)
	if m == nil {
		return "", "", Rejectf(ReasonShipmentRefFormat, "NREMISION %q no termina en dígitos", text)
	}
	t := tadDigits.FindStringSubmatch(s)
	if t == nil {
		return "", "", Rejectf(ReasonShipmentRefFormat, "NREMISION %q no contiene RC-<número>", text)
	}
	return m[1], t[1], nil
}

// ExtractRelation obtiene los dígitos finales de A_RELACION.
func ExtractRelation(text string) (string, error) {
	m := trailingDigits.FindStringSubmatch(normalizeAddendaText(text))
	if m == nil {
		return "", Rejectf(ReasonRelationRefFormat, "A_RELACION %q no termina en dígitos", text)
	}
	return m[1], nil
}
