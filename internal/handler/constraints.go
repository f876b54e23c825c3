package handler

import (
	"net/http"

	"github.com/paiban/escala/internal/constraints"
)

// GetConstraintLibraryHandler 返回约束库
func GetConstraintLibraryHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, constraints.LibraryResponse{Library: constraints.GetLibrary()})
}
