package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"kayak-backend/services"
	"kayak-backend/utils"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Anything unexpected is a
// 500 with a generic message; the detail only goes to the log.
func respondError(ctx *gin.Context, err error, action string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.JSONIssues(ctx, http.StatusBadRequest, "validation failed", verr.Issues)
	case errors.Is(err, services.ErrNotFound):
		utils.JSONError(ctx, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrConflict):
		utils.JSONError(ctx, http.StatusConflict, "id already exists")
	default:
		log.Printf("❌ %s: %v", action, err)
		utils.JSONError(ctx, http.StatusInternalServerError, "failed to "+action)
	}
}

// readBody returns the trimmed request body and whether it is a JSON array.
func readBody(ctx *gin.Context) ([]byte, bool, bool) {
	raw, err := ctx.GetRawData()
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "cannot read request body")
		return nil, false, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		utils.JSONError(ctx, http.StatusBadRequest, "request body is empty")
		return nil, false, false
	}
	return raw, raw[0] == '[', true
}

// decodeJSON unmarshals body into v, answering 400 on malformed input.
func decodeJSON(ctx *gin.Context, body []byte, v any) bool {
	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			utils.JSONIssues(ctx, http.StatusBadRequest, "invalid payload", []services.Issue{
				{Field: typeErr.Field, Message: "must be a " + typeErr.Type.String()},
			})
			return false
		}
		utils.JSONError(ctx, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// bodyID pulls the mandatory id out of a PUT body.
func bodyID(ctx *gin.Context, fields map[string]json.RawMessage) (int64, bool) {
	raw, ok := fields["id"]
	if !ok {
		utils.JSONError(ctx, http.StatusBadRequest, "missing id")
		return 0, false
	}
	id, ok := utils.ParseID(raw)
	if !ok {
		utils.JSONError(ctx, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryID reads ?id= for DELETE requests.
func queryID(ctx *gin.Context) (int64, bool) {
	raw, ok := ctx.GetQuery("id")
	if !ok || raw == "" {
		utils.JSONError(ctx, http.StatusBadRequest, "missing id")
		return 0, false
	}
	id, ok := utils.ParseIDString(raw)
	if !ok {
		utils.JSONError(ctx, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}
