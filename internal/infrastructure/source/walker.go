// Package source enumera los archivos de entrada: recorre el árbol de directorios
// y abre los ZIP que descarga el portal del proveedor.
package source

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Extensiones reconocidas.
const (
	ExtZip = ".zip"
	ExtXML = ".xml"
)

// Enumerate devuelve las rutas absolutas de todos los archivos regulares bajo root,
// en orden léxico (el de filepath.WalkDir). No sigue enlaces simbólicos bajo la raíz.
//
// Solo un error sobre la raíz es fatal. Un subdirectorio o archivo ilegible se salta
// y vuelve en skipped para que el llamador lo registre.
func Enumerate(root string) (files []string, skipped []error, err error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("source: ruta %s: %w", root, err)
	}
	// La raíz puede ser un enlace (p. ej. una carpeta compartida montada); se resuelve solo ella.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			skipped = append(skipped, fmt.Errorf("source: %s: %w", path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, skipped, fmt.Errorf("source: recorrer %s: %w", abs, err)
	}
	return files, skipped, nil
}

// FilterExtension conserva las rutas que terminan en ext sin distinguir mayúsculas.
func FilterExtension(paths []string, ext string) []string {
	ext = strings.ToLower(ext)
	var out []string
	for _, p := range paths {
		if strings.HasSuffix(strings.ToLower(p), ext) {
			out = append(out, p)
		}
	}
	return out
}
