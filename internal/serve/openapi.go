package serve

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

var specOnce sync.Once
var spec *openapi3.T

// APISpec describes the HTTP surface. Built once and validated so the
// published document can never drift into an invalid shape.
func APISpec() *openapi3.T {
	specOnce.Do(func() {
		spec = buildSpec()
	})
	return spec
}

func buildSpec() *openapi3.T {
	nameParam := &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:        "name",
			In:          "path",
			Required:    true,
			Description: "Module name, optionally module:qualname.",
			Schema:      openapi3.NewSchemaRef("", openapi3.NewStringSchema()),
		},
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "supdoc",
			Description: "Documentation extracted by inspecting Python modules.",
			Version:     "1.0.0",
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/modules/{name}", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "getModule",
					Summary:     "Inspect a module and return its objdoc as JSON.",
					Parameters:  openapi3.Parameters{nameParam},
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(200, &openapi3.ResponseRef{
							Value: openapi3.NewResponse().
								WithDescription("The objdoc tree for the named object.").
								WithJSONSchema(openapi3.NewObjectSchema()),
						}),
						openapi3.WithStatus(404, &openapi3.ResponseRef{
							Value: openapi3.NewResponse().
								WithDescription("Module or qualified name not found."),
						}),
					),
				},
			}),
			openapi3.WithPath("/docs/{name}", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "getDocs",
					Summary:     "Inspect a module and return a rendered HTML page.",
					Parameters:  openapi3.Parameters{nameParam},
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(200, &openapi3.ResponseRef{
							Value: openapi3.NewResponse().
								WithDescription("Rendered documentation page."),
						}),
						openapi3.WithStatus(404, &openapi3.ResponseRef{
							Value: openapi3.NewResponse().
								WithDescription("Module or qualified name not found."),
						}),
					),
				},
			}),
			openapi3.WithPath("/health", &openapi3.PathItem{
				Get: &openapi3.Operation{
					OperationID: "getHealth",
					Summary:     "Liveness check.",
					Responses: openapi3.NewResponses(
						openapi3.WithStatus(200, &openapi3.ResponseRef{
							Value: openapi3.NewResponse().
								WithDescription("Server is up.").
								WithJSONSchema(openapi3.NewObjectSchema()),
						}),
					),
				},
			}),
		),
	}
	return doc
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := APISpec()
	if err := doc.Validate(r.Context()); err != nil {
		slog.Error("openapi document invalid", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
