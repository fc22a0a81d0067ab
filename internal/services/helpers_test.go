package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/volm-robotics/volm-backend/internal/config"
	"github.com/volm-robotics/volm-backend/internal/database"
)

var userColumns = []string{"id", "email", "first_name", "last_name", "birth_date", "yandex_id", "created_at"}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := database.Open(postgres.New(postgres.Config{Conn: sqlDB}), "app")
	require.NoError(t, err)
	return db, mock
}

// fakeYandex serves the token and info endpoints of the provider.
type fakeYandex struct {
	server      *httptest.Server
	profile     YandexProfile
	tokenStatus int
	gotForm     map[string]string
	gotAuth     string
}

func newFakeYandex(t *testing.T) *fakeYandex {
	t.Helper()
	f := &fakeYandex{
		profile:     YandexProfile{ID: "1130000012345", DefaultEmail: "ya@yandex.ru", FirstName: "Ivan", LastName: "Petrov"},
		tokenStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.gotForm = map[string]string{}
		for k := range r.PostForm {
			f.gotForm[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Code has expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeYandex) config() config.Yandex {
	return config.Yandex{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      f.server.URL + "/authorize",
		TokenURL:     f.server.URL + "/token",
		InfoURL:      f.server.URL + "/info",
		HTTPTimeout:  5 * time.Second,
	}
}
