package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/history"
	"github.com/iliyamo/cinema-booking/internal/inventory"
	"github.com/iliyamo/cinema-booking/internal/kvstore"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/moviedb"
	"github.com/iliyamo/cinema-booking/internal/payment"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/ticket"
	"github.com/iliyamo/cinema-booking/internal/wizard"
)

const (
	openShow    = "27205-1-2030-01-02-19:00"
	soldOutShow = "27205-2-2030-01-02-19:00"
)

type stubCatalog struct{}

func (stubCatalog) Details(_ context.Context, id int64) (model.MovieDetails, error) {
	if id == 404 {
		return model.MovieDetails{}, moviedb.ErrNotFound
	}
	return model.MovieDetails{ID: id, Title: "Inception", VoteAverage: 8.4}, nil
}

func (stubCatalog) Popular(_ context.Context, page int) (model.MoviePage, error) {
	return model.MoviePage{Page: page, TotalPages: 1, TotalResults: 3, Results: []model.MovieListItem{
		{ID: 1, Title: "Inception", VoteAverage: 8.4, OriginalLanguage: "en", Popularity: 50},
		{ID: 2, Title: "Amelie", VoteAverage: 7.9, OriginalLanguage: "fr", Popularity: 20},
		{ID: 3, Title: "Flop", VoteAverage: 3.1, OriginalLanguage: "en", Popularity: 90},
	}}, nil
}

func (stubCatalog) Search(_ context.Context, q string, page int) (model.MoviePage, error) {
	return model.MoviePage{Page: page, Results: []model.MovieListItem{{ID: 1, Title: "Inception " + q}}}, nil
}

type stubShows struct{}

func (stubShows) ListShowtimes(_ context.Context, _ int64) ([]model.Showtime, error) {
	return []model.Showtime{
		{ID: openShow, Theater: inventory.Theaters[0], Date: "2030-01-02", Time: "19:00", ScreenType: "IMAX", Price: 14, AvailableSeats: 30},
		{ID: soldOutShow, Theater: inventory.Theaters[1], Date: "2030-01-02", Time: "19:00", ScreenType: "Standard", Price: 12, AvailableSeats: 0},
	}, nil
}

func (stubShows) ListSeats(_ context.Context, _ string) ([]model.Seat, error) {
	return inventory.NewSeatGrid(func(id string) bool { return id == "B1" }), nil
}

func newApp(t *testing.T) *echo.Echo {
	t.Helper()
	store := kvstore.NewActor(kvstore.NewMemoryStore(), 8)
	t.Cleanup(store.Close)
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	bookings := repository.NewBookingRepo(store)
	ledger := repository.NewSeatLedger(store)
	favorites := repository.NewFavoritesRepo(store)
	filters := repository.NewFiltersRepo(store)
	shows := inventory.NewReconcilingProvider(stubShows{}, ledger)
	wiz := wizard.New(wizard.Config{
		Movies:     stubCatalog{},
		Inventory:  shows,
		Payments:   &payment.SimulatedProcessor{IDs: payment.NewIDGenerator(clock), Now: clock},
		Bookings:   bookings,
		Ledger:     ledger,
		SessionTTL: time.Hour,
		Now:        clock,
	})
	signer := ticket.NewSigner("test-secret")

	e := echo.New()
	router.RegisterRoutes(e, &handler.HealthHandler{Store: store, Sessions: wiz})
	v1 := router.ClientGroup(e)
	router.RegisterMovies(v1, &handler.MovieHandler{Movies: stubCatalog{}, Filters: filters, Shows: shows},
		middleware.NewRedisCache(config.CacheConfig{}, nil))
	router.RegisterBooking(e, v1, &handler.WizardHandler{Wizard: wiz},
		&handler.BookingHandler{
			History:  history.NewService(bookings, ledger, nil, time.UTC).WithClock(clock),
			Signer:   signer,
			Location: time.UTC,
		},
		middleware.NewTokenBucket(config.RateLimitConfig{}, nil), signer)
	router.RegisterAccount(v1,
		&handler.FavoritesHandler{Favorites: favorites},
		&handler.PreferencesHandler{Filters: filters},
		&handler.ProfileHandler{Profiles: service.NewProfileService(repository.NewProfileRepo(store), favorites, bookings,
			repository.NewActivityRepo(store), 4, time.UTC)})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, client string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if client != "" {
		req.Header.Set(middleware.ClientHeader, client)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

var validForm = payment.Form{
	CardNumber: "4111 1111 1111 1111",
	CardName:   "Jane Doe",
	ExpiryDate: "12/29",
	CVV:        "123",
	Email:      "jane@example.com",
	Phone:      "5551234567",
}

func TestBookingFlow(t *testing.T) {
	e := newApp(t)

	rec, s := call(t, e, http.MethodPost, "/v1/sessions", "alice", map[string]any{"movieId": 27205})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "select_showtime", s["step"])
	base := "/v1/sessions/" + s["id"].(string)

	rec, _ = call(t, e, http.MethodPost, base+"/showtime", "alice", map[string]any{"showtimeId": soldOutShow})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, s = call(t, e, http.MethodPost, base+"/showtime", "alice", map[string]any{"showtimeId": openShow})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "select_seats", s["step"])

	rec, _ = call(t, e, http.MethodPost, base+"/seats/B1", "alice", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	call(t, e, http.MethodPost, base+"/seats/A1", "alice", nil)
	_, s = call(t, e, http.MethodPost, base+"/seats/A2", "alice", nil)
	assert.Equal(t, 30.0, s["totalPrice"])

	rec, s = call(t, e, http.MethodPost, base+"/seats/confirm", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payment", s["step"])

	bad := validForm
	bad.CardNumber = "4111"
	rec, body := call(t, e, http.MethodPost, base+"/payment", "alice", bad)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["fields"], "cardNumber")

	rec, s = call(t, e, http.MethodPost, base+"/payment", "alice", validForm)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmation", s["step"])
	txn := s["booking"].(map[string]any)["paymentInfo"].(map[string]any)["transactionId"].(string)
	require.NotEmpty(t, txn)

	rec, _ = call(t, e, http.MethodPost, base+"/confirm", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, e, http.MethodPost, base+"/confirm", "alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	_, list := call(t, e, http.MethodGet, "/v1/bookings", "alice", nil)
	items := list["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "upcoming", first["displayStatus"])
	assert.Equal(t, true, first["canCancel"])
	assert.Equal(t, 30.0, first["totalPrice"])

	// the seats are sold for everyone
	_, shows := call(t, e, http.MethodGet, "/v1/movies/27205/showtimes", "bob", nil)
	assert.Equal(t, 28.0, shows["items"].([]any)[0].(map[string]any)["availableSeats"])

	// other clients see neither the session nor the booking
	rec, _ = call(t, e, http.MethodGet, base, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, list = call(t, e, http.MethodGet, "/v1/bookings", "bob", nil)
	assert.Empty(t, list["items"])

	rec, _ = call(t, e, http.MethodGet, "/v1/bookings/"+txn+"/ticket.txt", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BOOKING CONFIRMATION")
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "booking-"+txn+".txt")

	rec, _ = call(t, e, http.MethodGet, "/v1/bookings/"+txn+"/ticket.pdf", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	_, tok := call(t, e, http.MethodGet, "/v1/bookings/"+txn+"/token", "alice", nil)
	verify := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/tickets/verify", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok["token"].(string))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}
	vrec := verify()
	require.Equal(t, http.StatusOK, vrec.Code, vrec.Body.String())
	assert.Contains(t, vrec.Body.String(), txn)

	rec, cancelled := call(t, e, http.MethodPost, "/v1/bookings/"+txn+"/cancel", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", cancelled["status"])
	_, shows = call(t, e, http.MethodGet, "/v1/movies/27205/showtimes", "bob", nil)
	assert.Equal(t, 30.0, shows["items"].([]any)[0].(map[string]any)["availableSeats"])

	// a token issued before the cancel no longer admits
	vrec = verify()
	assert.Equal(t, http.StatusConflict, vrec.Code)
	assert.Contains(t, vrec.Body.String(), `"valid":false`)

	// nor does confirming the finished session revive the booking
	rec, _ = call(t, e, http.MethodPost, base+"/confirm", "alice", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = call(t, e, http.MethodDelete, "/v1/bookings/"+txn, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = call(t, e, http.MethodGet, "/v1/bookings/"+txn, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, verify().Code)
	rec, _ = call(t, e, http.MethodPost, base+"/confirm", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWizardErrors(t *testing.T) {
	e := newApp(t)

	rec, _ := call(t, e, http.MethodPost, "/v1/sessions", "", map[string]any{"movieId": 404})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = call(t, e, http.MethodPost, "/v1/sessions", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, s := call(t, e, http.MethodPost, "/v1/sessions", "", map[string]any{"movieId": 1})
	base := "/v1/sessions/" + s["id"].(string)
	rec, _ = call(t, e, http.MethodPost, base+"/seats/confirm", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = call(t, e, http.MethodPost, base+"/back", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(t, e, http.MethodPost, base+"/showtime", "", map[string]any{"showtimeId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, e, http.MethodDelete, base, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = call(t, e, http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, e, http.MethodGet, "/v1/bookings?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, e, http.MethodGet, "/v1/tickets/verify?token=garbage", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMoviesAndPreferences(t *testing.T) {
	e := newApp(t)

	_, page := call(t, e, http.MethodGet, "/v1/movies/popular", "alice", nil)
	assert.Len(t, page["results"], 3)

	rec, _ := call(t, e, http.MethodPut, "/v1/preferences/filters", "alice", map[string]any{"viewMode": "carousel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, saved := call(t, e, http.MethodPut, "/v1/preferences/filters", "alice",
		map[string]any{"viewMode": "list", "sortOption": "rating", "minRating": 5, "language": "en"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "list", saved["viewMode"])

	_, page = call(t, e, http.MethodGet, "/v1/movies/popular", "alice", nil)
	results := page["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, "Inception", results[0].(map[string]any)["title"])

	// bob keeps the defaults
	_, page = call(t, e, http.MethodGet, "/v1/movies/popular", "bob", nil)
	assert.Len(t, page["results"], 3)

	rec, _ = call(t, e, http.MethodGet, "/v1/movies/popular?page=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(t, e, http.MethodGet, "/v1/movies/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = call(t, e, http.MethodGet, "/v1/movies/404", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFavoritesAndProfile(t *testing.T) {
	e := newApp(t)

	_, fav := call(t, e, http.MethodPost, "/v1/favorites", "alice", model.MovieSummary{ID: 27205, Title: "Inception"})
	assert.Equal(t, true, fav["favorite"])
	_, fav = call(t, e, http.MethodGet, "/v1/favorites/27205", "alice", nil)
	assert.Equal(t, true, fav["favorite"])
	_, list := call(t, e, http.MethodGet, "/v1/favorites", "alice", nil)
	assert.Len(t, list["items"], 1)
	rec, _ := call(t, e, http.MethodDelete, "/v1/favorites/27205", "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = call(t, e, http.MethodDelete, "/v1/favorites/27205", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, p := call(t, e, http.MethodGet, "/v1/profile", "alice", nil)
	assert.Equal(t, "User", p["name"])
	rec, body := call(t, e, http.MethodPut, "/v1/profile", "alice", map[string]any{"name": "Jane", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["fields"], "email")
	_, p = call(t, e, http.MethodPut, "/v1/profile", "alice", map[string]any{"name": "Jane", "email": "jane@example.com"})
	assert.Equal(t, "Jane", p["name"])

	rec, _ = call(t, e, http.MethodPut, "/v1/profile/password", "alice",
		service.PasswordChange{CurrentPassword: "x", NewPassword: "secret1", ConfirmPassword: "secret1"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = call(t, e, http.MethodPut, "/v1/profile/password", "alice",
		service.PasswordChange{CurrentPassword: "wrong", NewPassword: "secret2", ConfirmPassword: "secret2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, act := call(t, e, http.MethodGet, "/v1/profile/activity", "alice", nil)
	assert.Equal(t, 0.0, act["favorites"])
	assert.Equal(t, 0.0, act["bookings"])
}

func TestHealth(t *testing.T) {
	e := newApp(t)
	rec, _ := call(t, e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "ok", rec.Body.String())
	_, ready := call(t, e, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, "ready", ready["status"])
}
