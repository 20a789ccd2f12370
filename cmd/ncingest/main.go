// Command ncingest carga en la BD las notas de crédito CFDI que el proveedor deja en una carpeta
// (ZIP con XML timbrados), resolviendo factura y destino contra el libro de compras.
//
//	ncingest run [--root DIR] [--strategy bulk|procedure] [--dry-run [--script-out FILE]]
//	ncingest replay spill/<run_id>.jsonl
//	ncingest version
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
