// Package httpjson пишет JSON-ответы и ошибки в едином формате.
package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"

	"redeploy/internal/apperr"
)

// MaxBodyBytes: ограничение размера тела запроса, чтобы избежать DoS
const MaxBodyBytes = 1 << 20

type ErrorBody struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
	Field string      `json:"field,omitempty"`
}

func Write(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error переводит ошибку в HTTP-код по её Kind. Внутренние детали наружу не отдаются.
func Error(w http.ResponseWriter, err error) {
	body := ErrorBody{Kind: apperr.KindOf(err)}
	var e *apperr.Error
	if errors.As(err, &e) && e.Kind != apperr.KindInternal {
		body.Error = e.Message
		body.Field = e.Field
	} else {
		body.Kind = apperr.KindInternal
		body.Error = "internal error"
	}
	Write(w, apperr.HTTPStatus(body.Kind), body)
}

// Decode читает JSON-тело запроса. Неизвестные поля считаются ошибкой.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("body", "invalid JSON format: "+err.Error())
	}
	return nil
}
