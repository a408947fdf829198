package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/seating/apps/api/echo"
	"github.com/trezcool/seating/core"
	"github.com/trezcool/seating/core/seating"
	inmemdb "github.com/trezcool/seating/storage/database/inmem"
	testutil "github.com/trezcool/seating/tests"
)

type testApp struct {
	Server
	repo seating.Repository
	db   *inmemdb.DB
}

func newTestApp(t *testing.T) *testApp {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Server.DisableReqLogs = true

	db := inmemdb.Open()
	repo := inmemdb.NewSeatingRepository(db)
	validate, translator := seating.NewValidator()
	svc := seating.NewService(repo, testutil.NewLogger(t), seating.WithValidator(validate, translator))

	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     testutil.NewLogger(t),
		SeatingSvc: svc,
		Translator: translator,
	})
	t.Cleanup(func() { _ = app.Close() })
	return &testApp{Server: app, repo: repo, db: db}
}

type httpTest struct {
	name      string
	method    string
	path      string
	body      interface{}
	wantCode  int
	wantError string // envelope error code
	wantField string // a field of the validation error
	check     func(t *testing.T, data json.RawMessage)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
}

func (app *testApp) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func (app *testApp) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			env := decode(t, rec)
			if tt.wantError == "" {
				assert.True(t, env.Success)
				assert.Nil(t, env.Error)
				if tt.check != nil {
					tt.check(t, env.Data)
				}
				return
			}

			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantError, env.Error.Code)
			if tt.wantField != "" {
				fields := make([]string, 0, len(env.Error.Fields))
				for _, fe := range env.Error.Fields {
					fields = append(fields, fe.Field)
				}
				assert.Contains(t, fields, tt.wantField)
			}
		})
	}
}

func unmarshal[T any](t *testing.T, data json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestHome(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "API!")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	app.run(t, []httpTest{
		{name: "not found", method: http.MethodGet, path: "/v1/lol", wantCode: http.StatusNotFound, wantError: "not_found"},
		{name: "method not allowed", method: http.MethodPatch, path: "/v1/classrooms", wantCode: http.StatusMethodNotAllowed, wantError: "validation_error"},
	})
}
