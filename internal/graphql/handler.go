package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/tournevent/freightquote/internal/api"
)

const maxBodyBytes = 1 << 20

// GraphQL request/response types
type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []graphQLError `json:"errors,omitempty"`
}

type graphQLError struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Handler serves the GraphQL endpoint. Supported query fields are health,
// quotes(input: QuoteInput!) and chargeableWeight(input: WeightInput!).
type Handler struct {
	resolver *Resolver
}

// NewHandler creates a GraphQL HTTP handler.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeResponse(w, http.StatusMethodNotAllowed, graphQLResponse{
			Errors: []graphQLError{{Message: "Method not allowed, use POST"}},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, graphQLResponse{
			Errors: []graphQLError{{Message: "Invalid JSON: " + err.Error()}},
		})
		return
	}

	op, err := operation(req)
	if err != nil {
		writeResponse(w, http.StatusBadRequest, graphQLResponse{
			Errors: []graphQLError{{Message: err.Error()}},
		})
		return
	}

	data := make(map[string]any, len(op.SelectionSet))
	var errs []graphQLError
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			errs = append(errs, fieldError("", queryError("fragments are not supported")))
			continue
		}
		key := responseKey(field)
		value, err := h.resolveField(r.Context(), field, req.Variables)
		if err != nil {
			data[key] = nil
			errs = append(errs, fieldError(key, err))
			continue
		}
		data[key] = value
	}

	writeResponse(w, http.StatusOK, graphQLResponse{Data: data, Errors: errs})
}

func operation(req graphQLRequest) (*ast.OperationDefinition, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "request", Input: req.Query})
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if len(doc.Operations) == 0 {
		return nil, errors.New("no operation in document")
	}

	var op *ast.OperationDefinition
	switch {
	case req.OperationName != "":
		op = doc.Operations.ForName(req.OperationName)
		if op == nil {
			return nil, fmt.Errorf("unknown operation %q", req.OperationName)
		}
	case len(doc.Operations) == 1:
		op = doc.Operations[0]
	default:
		return nil, errors.New("operationName is required for documents with several operations")
	}

	if op.Operation != ast.Query {
		return nil, fmt.Errorf("%s operations are not supported", op.Operation)
	}
	return op, nil
}

func (h *Handler) resolveField(ctx context.Context, field *ast.Field, vars map[string]any) (any, error) {
	query := h.resolver.Query()

	switch field.Name {
	case "__typename":
		return "Query", nil

	case "health":
		return query.Health(ctx)

	case "quotes":
		input, err := quoteInputFromArgs(field, vars)
		if err != nil {
			return nil, err
		}
		resp, err := query.Quotes(ctx, input)
		if err != nil {
			return nil, err
		}
		return project(resp, field.SelectionSet)

	case "chargeableWeight":
		input, err := weightInputFromArgs(field, vars)
		if err != nil {
			return nil, err
		}
		resp, err := query.ChargeableWeight(ctx, input)
		if err != nil {
			return nil, err
		}
		return project(resp, field.SelectionSet)

	default:
		return nil, queryError(fmt.Sprintf("Cannot query field %q on type \"Query\"", field.Name))
	}
}

// queryError is a document problem reported to the client verbatim.
type queryError string

func (e queryError) Error() string { return string(e) }

func fieldError(key string, err error) graphQLError {
	var gqlErr graphQLError
	var qe queryError
	if errors.As(err, &qe) {
		gqlErr = graphQLError{
			Message:    qe.Error(),
			Extensions: map[string]any{"code": "GRAPHQL_VALIDATION_FAILED"},
		}
	} else {
		_, detail := api.Classify(err)
		gqlErr = graphQLError{
			Message:    detail.Message,
			Extensions: map[string]any{"code": detail.Code},
		}
	}
	if key != "" {
		gqlErr.Path = []string{key}
	}
	return gqlErr
}

func writeResponse(w http.ResponseWriter, status int, resp graphQLResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
