// Package spill guarda en disco los lotes que no se pudieron escribir en la BD,
// como JSON por línea, para reintentarlos luego con "ncingest replay".
package spill

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/ncingest/internal/domain/entity"
)

// Sink archivo de derrame de una corrida (append).
type Sink struct {
	dir   string
	runID string
}

// NewSink prepara el derrame en dir/<runID>.jsonl; el archivo se crea en el primer Write.
func NewSink(dir, runID string) *Sink {
	return &Sink{dir: dir, runID: runID}
}

// Path ruta del archivo de derrame.
func (s *Sink) Path() string {
	return filepath.Join(s.dir, s.runID+".jsonl")
}

// Write agrega los registros y cierra el archivo antes de volver.
func (s *Sink) Write(records []*entity.CreditNoteRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("spill: crear %s: %w", s.dir, err)
	}
	f, err := os.OpenFile(s.Path(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("spill: abrir %s: %w", s.Path(), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("spill: cerrar %s: %w", s.Path(), cerr)
		}
	}()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("spill: %s: %w", r.CreditNoteNumber, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("spill: flush %s: %w", s.Path(), err)
	}
	return nil
}

// ReadAll lee un archivo de derrame completo. Una línea corrupta es error: el
// archivo es la única copia de esos registros.
func ReadAll(path string) ([]*entity.CreditNoteRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spill: abrir %s: %w", path, err)
	}
	defer f.Close()

	var out []*entity.CreditNoteRecord
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r entity.CreditNoteRecord
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("spill: %s línea %d: %w", path, line, err)
		}
		out = append(out, &r)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("spill: leer %s: %w", path, err)
	}
	return out, nil
}
