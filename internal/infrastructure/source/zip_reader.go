package source

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxEntrySize límite por entrada descomprimida; un CFDI real pesa unos pocos KB.
const maxEntrySize = 32 << 20

// Entry contenido crudo de un XML dentro de un ZIP.
// Err no nulo indica que la entrada no se pudo leer (CRC, deflate roto, tamaño); Data queda vacío.
type Entry struct {
	Name string
	Data []byte
	Err  error
}

// ExtractXMLEntries abre el ZIP y devuelve, en el orden del directorio central,
// el contenido de cada entrada cuyo nombre termina en .xml (sin distinguir mayúsculas).
// Una entrada ilegible no descarta a las demás: vuelve con Err. Solo falla si el ZIP no abre.
func ExtractXMLEntries(archivePath string) ([]Entry, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("zip: abrir %s: %w", archivePath, err)
	}
	defer zr.Close()

	var entries []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ExtXML) {
			continue
		}
		data, err := readEntry(f)
		if err != nil {
			entries = append(entries, Entry{Name: f.Name, Err: fmt.Errorf("zip: %s: %w", archivePath, err)})
			continue
		}
		entries = append(entries, Entry{Name: f.Name, Data: data})
	}
	return entries, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("abrir entrada %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("leer entrada %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("entrada %s excede %d bytes", f.Name, maxEntrySize)
	}
	return data, nil
}

// ReadFile lee un XML suelto como Entry (Name = ruta).
func ReadFile(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, fmt.Errorf("leer %s: %w", path, err)
	}
	return Entry{Name: path, Data: data}, nil
}
