package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kayak-backend/config"
	"kayak-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := config.ConnectDatabase(config.Settings{DBDriver: "sqlite", SQLitePath: ":memory:", DBLogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return SetupRouter(NewHandlers(db, config.CascadeAtomic, services.NopPublisher{}), []string{"*"})
}

func do(t *testing.T, r http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func list(t *testing.T, r http.Handler, path string) []map[string]any {
	t.Helper()
	w, _ := do(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var janKowalski = map[string]any{
	"Imie":          "Jan",
	"Nazwisko":      "Kowalski",
	"Trasa":         1,
	"status":        "nie_potwierdzony",
	"paymentStatus": "nieoplacony",
	"dwuosobowe":    2,
	"jednoosobowe":  0,
	"Telefon":       "123456789",
	"Email":         "jan@x.pl",
	"Data":          "2025-06-01",
}

func TestHealth(t *testing.T) {
	w, body := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCreateReservationScenario(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/reservations", janKowalski)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])

	booking := body["booking"].(map[string]any)
	assert.IsType(t, float64(0), booking["id"])
	history := booking["history"].([]any)
	require.Len(t, history, 1)
	assert.Equal(t, "created", history[0].(map[string]any)["action"])

	all := list(t, r, "/api/reservations")
	require.Len(t, all, 1)
	assert.Equal(t, booking["id"], all[0]["id"])
}

func TestCreateReservationValidation(t *testing.T) {
	r := newTestRouter(t)

	bad := map[string]any{}
	for k, v := range janKowalski {
		bad[k] = v
	}
	bad["Email"] = "not-an-email"
	delete(bad, "Imie")

	w, body := do(t, r, http.MethodPost, "/api/reservations", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Len(t, body["issues"], 2)

	w, _ = do(t, r, http.MethodPost, "/api/reservations", `{"Trasa":"one"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/reservations", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/reservations", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, list(t, r, "/api/reservations"))
}

func TestOverwriteAllReservations(t *testing.T) {
	r := newTestRouter(t)
	_, _ = do(t, r, http.MethodPost, "/api/reservations", janKowalski)

	second := map[string]any{}
	for k, v := range janKowalski {
		second[k] = v
	}
	second["Imie"] = "Anna"

	w, body := do(t, r, http.MethodPost, "/api/reservations", []any{janKowalski, second})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])

	all := list(t, r, "/api/reservations")
	require.Len(t, all, 2)
	assert.Equal(t, "Jan", all[0]["Imie"])
	assert.Equal(t, "Anna", all[1]["Imie"])
}

func TestUpdateReservation(t *testing.T) {
	r := newTestRouter(t)
	_, created := do(t, r, http.MethodPost, "/api/reservations", janKowalski)
	id := created["booking"].(map[string]any)["id"]

	w, body := do(t, r, http.MethodPut, "/api/reservations", map[string]any{"id": id, "status": "potwierdzony"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	booking := body["booking"].(map[string]any)
	assert.Equal(t, "potwierdzony", booking["status"])
	assert.Equal(t, "Kowalski", booking["Nazwisko"])
	assert.Len(t, booking["history"], 1)

	w, _ = do(t, r, http.MethodPut, "/api/reservations", map[string]any{"status": "potwierdzony"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPut, "/api/reservations", map[string]any{"id": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPut, "/api/reservations", map[string]any{"id": 5, "status": "potwierdzony"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, list(t, r, "/api/reservations"), 1)
}

func TestReservationStatusEndpoint(t *testing.T) {
	r := newTestRouter(t)
	_, created := do(t, r, http.MethodPost, "/api/reservations", janKowalski)
	id := int64(created["booking"].(map[string]any)["id"].(float64))
	path := "/api/reservations/" + jsonNumber(id) + "/status"

	w, body := do(t, r, http.MethodPatch, path, map[string]any{"paymentStatus": "oplacony", "notes": "gotówka"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["changed"])
	history := body["booking"].(map[string]any)["history"].([]any)
	require.Len(t, history, 2)
	assert.Equal(t, "status_changed", history[1].(map[string]any)["action"])

	w, body = do(t, r, http.MethodPatch, path, map[string]any{"paymentStatus": "oplacony"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["changed"])

	w, _ = do(t, r, http.MethodGet, "/api/reservations/"+jsonNumber(id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/reservations/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = do(t, r, http.MethodGet, "/api/reservations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReservation(t *testing.T) {
	r := newTestRouter(t)
	_, created := do(t, r, http.MethodPost, "/api/reservations", janKowalski)
	id := int64(created["booking"].(map[string]any)["id"].(float64))

	w, _ := do(t, r, http.MethodDelete, "/api/reservations", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := do(t, r, http.MethodDelete, "/api/reservations?id="+jsonNumber(id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])

	// unmatched id is still a success
	w, _ = do(t, r, http.MethodDelete, "/api/reservations?id="+jsonNumber(id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, list(t, r, "/api/reservations"))
}

func TestDeleteRouteScenario(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < 2; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/reservations", janKowalski)
		require.Equal(t, http.StatusOK, w.Code)
	}
	other := map[string]any{}
	for k, v := range janKowalski {
		other[k] = v
	}
	other["Trasa"] = 2
	_, _ = do(t, r, http.MethodPost, "/api/reservations", other)

	require.Len(t, list(t, r, "/api/routes"), 3)

	w, _ := do(t, r, http.MethodDelete, "/api/routes?id=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, list(t, r, "/api/routes"), 2)

	w, body := do(t, r, http.MethodPost, "/api/update-bookings-after-route-delete", map[string]any{"routeId": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["affectedBookings"])

	cleared := 0
	for _, res := range list(t, r, "/api/reservations") {
		history := res["history"].([]any)
		last := history[len(history)-1].(map[string]any)
		if res["Trasa"] == float64(0) {
			cleared++
			assert.Len(t, history, 2)
			assert.Equal(t, "route_deleted", last["action"])
		} else {
			assert.Equal(t, float64(2), res["Trasa"])
			assert.Equal(t, "created", last["action"])
		}
	}
	assert.Equal(t, 2, cleared)

	// deleting the same route again is a 404, the cascade stays a no-op
	w, _ = do(t, r, http.MethodDelete, "/api/routes?id=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, body = do(t, r, http.MethodPost, "/api/update-bookings-after-route-delete", map[string]any{"routeId": "1"})
	assert.Equal(t, float64(0), body["affectedBookings"])
}

func TestCascadeEndpointValidation(t *testing.T) {
	r := newTestRouter(t)
	for _, payload := range []any{map[string]any{}, map[string]any{"routeId": 0}, map[string]any{"routeId": -2}, "", `{"routeId":"x"}`} {
		w, body := do(t, r, http.MethodPost, "/api/update-bookings-after-route-delete", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		assert.Equal(t, false, body["success"])
	}
}

func TestDeleteRouteWithCascadeFlag(t *testing.T) {
	r := newTestRouter(t)
	_, _ = do(t, r, http.MethodPost, "/api/reservations", janKowalski)

	w, body := do(t, r, http.MethodDelete, "/api/routes?id=1&cascade=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["affectedBookings"])
	assert.Equal(t, float64(0), list(t, r, "/api/reservations")[0]["Trasa"])
}

func TestCreateRoute(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/routes", map[string]any{"name": "Krutynia"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	route := body["route"].(map[string]any)
	assert.Equal(t, float64(4), route["id"])
	assert.Equal(t, "#3b82f6", route["color"])

	w, _ = do(t, r, http.MethodPost, "/api/routes", map[string]any{"name": "Wda", "color": "zielony"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/routes", map[string]any{"id": 1, "name": "Wda"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = do(t, r, http.MethodPost, "/api/routes", []any{map[string]any{"name": "Wda"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "expected a single route object", body["error"])
	assert.Len(t, list(t, r, "/api/routes"), 4)
}

func TestAnalyticsSummary(t *testing.T) {
	r := newTestRouter(t)
	march := map[string]any{}
	for k, v := range janKowalski {
		march[k] = v
	}
	march["Data"] = "2024-03-15"
	_, _ = do(t, r, http.MethodPost, "/api/reservations", march)
	_, _ = do(t, r, http.MethodPost, "/api/reservations", janKowalski)

	w, body := do(t, r, http.MethodGet, "/api/analytics/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
	months := body["months"].([]any)
	require.Len(t, months, 12)
	assert.Equal(t, float64(1), months[2])
	assert.Equal(t, float64(1), months[5])

	_, body = do(t, r, http.MethodGet, "/api/analytics/summary?year=2024", nil)
	assert.Equal(t, float64(1), body["total"])

	w, _ = do(t, r, http.MethodGet, "/api/analytics/summary?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCollections(t *testing.T) {
	r := newTestRouter(t)

	for path := range collectionPaths {
		t.Run(path, func(t *testing.T) {
			base := "/api/" + path
			assert.Empty(t, list(t, r, base))

			w, body := do(t, r, http.MethodPost, base, map[string]any{"id": 3, "name": "A"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "A", body["item"].(map[string]any)["name"])

			w, body = do(t, r, http.MethodPut, base, map[string]any{"id": 3, "name": "B"})
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "B", body["item"].(map[string]any)["name"])

			w, _ = do(t, r, http.MethodPost, base, []any{map[string]any{"name": "x"}, map[string]any{"name": "y"}})
			require.Equal(t, http.StatusOK, w.Code)
			items := list(t, r, base)
			require.Len(t, items, 2)

			id := int64(items[0]["id"].(float64))
			w, _ = do(t, r, http.MethodDelete, base+"?id="+jsonNumber(id), nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Len(t, list(t, r, base), 1)

			w, _ = do(t, r, http.MethodPut, base, map[string]any{"id": 3, "name": "gone"})
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestDocumentAcceptances(t *testing.T) {
	r := newTestRouter(t)
	_, created := do(t, r, http.MethodPost, "/api/reservations", janKowalski)
	id := created["booking"].(map[string]any)["id"]

	w, body := do(t, r, http.MethodPost, "/api/document-acceptances/accept", map[string]any{
		"documentId":    "regulamin",
		"reservationId": id,
		"acceptedBy":    "jan@x.pl",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := body["acceptance"].(map[string]any)
	assert.Equal(t, "accepted", entry["status"])
	assert.Equal(t, "accepted", entry["action"])

	w, body = do(t, r, http.MethodPost, "/api/document-acceptances/accept", map[string]any{
		"documentId": "rodo",
		"acceptedBy": "jan@x.pl",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pending", body["acceptance"].(map[string]any)["status"])

	w, _ = do(t, r, http.MethodPost, "/api/document-acceptances/accept", map[string]any{"acceptedBy": "jan"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/document-acceptances/accept", map[string]any{
		"documentId":    "rodo",
		"acceptedBy":    "jan",
		"reservationId": 404,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Len(t, list(t, r, "/api/document-acceptances"), 2)

	w, body = do(t, r, http.MethodPatch, "/api/document-acceptances/attach-reservation", map[string]any{
		"reservationId": id,
		"acceptedBy":    "jan@x.pl",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["linked"])

	w, _ = do(t, r, http.MethodPatch, "/api/document-acceptances/attach-reservation", map[string]any{"acceptedBy": "jan@x.pl"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReservationOptions(t *testing.T) {
	w, body := do(t, newTestRouter(t), http.MethodGet, "/api/reservations/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Len(t, data["statuses"], 4)
	assert.Len(t, data["paymentStatuses"], 4)
	assert.Len(t, data["timeSlots"], 9)
}

func jsonNumber(id int64) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}
