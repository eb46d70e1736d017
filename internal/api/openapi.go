package api

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/Sherif-Aboulnasr/FGCU-LLM-Router/internal/models"
)

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithRequired([]string{"error"})
}

func jsonResponse(desc string, s *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchema(s)}
}

// NewOpenAPIDoc describes the router API. The model enum is taken from cat.
func NewOpenAPIDoc(cat *models.Catalog, version string) *openapi3.T {
	ids := make([]any, 0, len(cat.List()))
	for _, d := range cat.List() {
		ids = append(ids, d.ID)
	}
	generateBody := openapi3.NewObjectSchema().
		WithProperty("prompt", openapi3.NewStringSchema().WithMinLength(1)).
		WithProperty("model", openapi3.NewStringSchema().WithEnum(ids...)).
		WithRequired([]string{"prompt", "model"})

	generate := &openapi3.Operation{
		OperationID: "generate",
		Summary:     "Stream a completion for one prompt",
		Tags:        []string{"generate"},
		RequestBody: &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(generateBody)},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Model text streamed as it is generated. A failure after the first byte is appended as \"\\n\\nError: <message>\".").
				WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"}))}),
			openapi3.WithStatus(http.StatusBadRequest, jsonResponse("Invalid body, empty prompt, unknown model or missing provider credential", errorSchema())),
			openapi3.WithStatus(http.StatusInternalServerError, jsonResponse("Provider failed before any text was streamed", errorSchema())),
			openapi3.WithStatus(http.StatusServiceUnavailable, jsonResponse("Server is draining", errorSchema())),
		),
	}

	health := &openapi3.Operation{
		OperationID: "health",
		Summary:     "Liveness probe",
		Tags:        []string{"system"},
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, jsonResponse("Service is up",
			openapi3.NewObjectSchema().
				WithProperty("status", openapi3.NewStringSchema().WithEnum("ok")).
				WithProperty("timestamp", openapi3.NewDateTimeSchema())))),
	}

	descriptor := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("provider", openapi3.NewStringSchema().WithEnum("openai", "groq", "google")).
		WithProperty("upstream_name", openapi3.NewStringSchema()).
		WithProperty("label", openapi3.NewStringSchema())
	listModels := &openapi3.Operation{
		OperationID: "listModels",
		Summary:     "Selectable models",
		Tags:        []string{"generate"},
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, jsonResponse("Model catalog",
			openapi3.NewObjectSchema().
				WithProperty("object", openapi3.NewStringSchema()).
				WithProperty("data", openapi3.NewArraySchema().WithItems(descriptor))))),
	}

	state := &openapi3.Operation{
		OperationID: "getState",
		Summary:     "Lifecycle, provider readiness and process stats",
		Tags:        []string{"system"},
		Responses: openapi3.NewResponses(openapi3.WithStatus(http.StatusOK, jsonResponse("State snapshot",
			openapi3.NewObjectSchema().
				WithProperty("status", openapi3.NewStringSchema()).
				WithProperty("draining", openapi3.NewBoolSchema()).
				WithProperty("in_flight", openapi3.NewInt64Schema())))),
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "llmrouter API",
			Description: "Routes single-turn prompts to hosted language models and streams the answer.",
			Version:     version,
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/api/generate", &openapi3.PathItem{Post: generate}),
			openapi3.WithPath("/api/health", &openapi3.PathItem{Get: health}),
			openapi3.WithPath("/api/models", &openapi3.PathItem{Get: listModels}),
			openapi3.WithPath("/api/state", &openapi3.PathItem{Get: state}),
		),
	}
	return doc
}
