package api

import (
	"net/http"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
)

// ModelsHandler handles GET /api/models. Entries keep catalog order so the
// first one is the UI default.
func ModelsHandler(cat *models.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp struct {
			Object string              `json:"object"`
			Data   []models.Descriptor `json:"data"`
		}
		resp.Object = "list"
		resp.Data = cat.List()
		writeJSON(w, http.StatusOK, resp)
	}
}
