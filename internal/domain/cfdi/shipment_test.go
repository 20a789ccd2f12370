package cfdi_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ncingest/internal/domain/cfdi"
)

func TestExtractShipmentRef_RemisionYTad(t *testing.T) {
	rem, tad, err := cfdi.ExtractShipmentRef("RC-629 REM 51234")
	require.NoError(t, err)
	assert.Equal(t, "51234", rem)
	assert.Equal(t, "629", tad)
}

// Las addendas del proveedor vienen rellenas con dobles espacios y salto de línea final.
func TestExtractShipmentRef_DoblesEspacios(t *testing.T) {
	rem, tad, err := cfdi.ExtractShipmentRef("RC-629    REM  51234  \n")
	require.NoError(t, err)
	assert.Equal(t, "51234", rem)
	assert.Equal(t, "629", tad)
}

func TestExtractShipmentRef_SinTad(t *testing.T) {
	_, _, err := cfdi.ExtractShipmentRef("REM 51234")
	require.Error(t, err)
	reason, ok := cfdi.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, cfdi.ReasonShipmentRefFormat, reason)
}

func TestExtractShipmentRef_SinDigitosFinales(t *testing.T) {
	_, _, err := cfdi.ExtractShipmentRef("RC-629 REM")
	reason, ok := cfdi.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, cfdi.ReasonShipmentRefFormat, reason)
}

func TestExtractRelation(t *testing.T) {
	rel, err := cfdi.ExtractRelation("PEDIDO  74708")
	require.NoError(t, err)
	assert.Equal(t, "74708", rel)

	_, err = cfdi.ExtractRelation("SIN NUMERO")
	reason, _ := cfdi.ReasonOf(err)
	assert.Equal(t, cfdi.ReasonRelationRefFormat, reason)
}

func TestReasonOf_ErrorEnvuelto(t *testing.T) {
	err := errors.Join(errors.New("contexto"), cfdi.Reject(cfdi.ReasonMissingStamp, nil))
	reason, ok := cfdi.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, cfdi.ReasonMissingStamp, reason)

	_, ok = cfdi.ReasonOf(errors.New("otro"))
	assert.False(t, ok)
}

func TestReason_SoloWrongTypeEsEsperado(t *testing.T) {
	assert.True(t, cfdi.ReasonWrongType.Expected())
	assert.False(t, cfdi.ReasonMissingConcepts.Expected())
	assert.False(t, cfdi.ReasonMalformedXML.Expected())
}
