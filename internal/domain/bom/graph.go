package bom

import "github.com/jhoicas/Inventario-core/internal/domain/entity"

// LineSource provee las líneas BOM vigentes de una pieza (lectura del catálogo).
type LineSource func(partID string) ([]entity.BOMLine, error)

// WouldCreateCycle verifica si reemplazar el BOM de parentID por newLines
// introduciría un ciclo en el grafo: busca alcanzabilidad desde cada componente
// nuevo de vuelta hacia el padre, recorriendo el grafo vigente.
// El conjunto visited acota el recorrido al tamaño del catálogo.
func WouldCreateCycle(source LineSource, parentID string, newLines []entity.BOMLine) (bool, error) {
	for _, line := range newLines {
		if line.ComponentID == parentID {
			return true, nil // auto-referencia directa
		}
		visited := map[string]bool{}
		found, err := reaches(source, line.ComponentID, parentID, visited)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// reaches hace DFS desde from buscando target sobre las líneas vigentes.
func reaches(source LineSource, from, target string, visited map[string]bool) (bool, error) {
	if visited[from] {
		return false, nil
	}
	visited[from] = true

	lines, err := source(from)
	if err != nil {
		return false, err
	}
	for _, line := range lines {
		if line.ComponentID == target {
			return true, nil
		}
		found, err := reaches(source, line.ComponentID, target, visited)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}
