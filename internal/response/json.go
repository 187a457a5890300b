package response

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
)

var rgxCamelBoundary = regexp.MustCompile("([a-z0-9])([A-Z])")

type Response[T any] struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
	Error   T      `json:"error,omitempty"`
}

func JSONOkResponse(w http.ResponseWriter, data any, message string, headers http.Header) error {
	return jsonSuccess(w, http.StatusOK, data, message, headers)
}

func JSONCreatedResponse(w http.ResponseWriter, data any, message string) error {
	return jsonSuccess(w, http.StatusCreated, data, message, nil)
}

// JSONAcceptedResponse is used for ledger mutations and queued orders.
func JSONAcceptedResponse(w http.ResponseWriter, data any, message string) error {
	return jsonSuccess(w, http.StatusAccepted, data, message, nil)
}

func JSONErrorResponse(w http.ResponseWriter, err any, message string, status int, headers http.Header) error {
	if message == "" {
		message = "Request failed"
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	response := &Response[any]{
		Status:  status,
		Success: false,
		Message: message,
		Error:   err,
	}

	return JSONWithHeaders(w, response, headers)
}

func jsonSuccess(w http.ResponseWriter, status int, data any, message string, headers http.Header) error {
	if message == "" {
		message = "Request successful"
	}

	if m, ok := data.(map[string]any); ok {
		data = ConvertKeysToSnakeCase(m)
	}

	response := &Response[any]{
		Status:  status,
		Success: true,
		Message: message,
		Data:    data,
	}

	return JSONWithHeaders(w, response, headers)
}

func JSON[T any](w http.ResponseWriter, response *Response[T]) error {
	return JSONWithHeaders(w, response, nil)
}

func JSONWithHeaders[T any](w http.ResponseWriter, response *Response[T], headers http.Header) error {
	js, err := json.MarshalIndent(response, "", "\t")
	if err != nil {
		return err
	}

	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Status)

	_, err = w.Write(js)
	return err
}

func toSnakeCase(s string) string {
	return strings.ToLower(rgxCamelBoundary.ReplaceAllString(s, "${1}_${2}"))
}

func ConvertKeysToSnakeCase(data map[string]any) map[string]any {
	snakeData := make(map[string]any, len(data))

	for key, value := range data {
		// Recursively handle nested maps
		if nestedMap, ok := value.(map[string]any); ok {
			value = ConvertKeysToSnakeCase(nestedMap)
		}

		snakeData[toSnakeCase(key)] = value
	}
	return snakeData
}
