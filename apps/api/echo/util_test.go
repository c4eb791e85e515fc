package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/biru-ka2/Attendify-sub000/apps/api/echo"
	"github.com/biru-ka2/Attendify-sub000/core"
	"github.com/biru-ka2/Attendify-sub000/core/attendance"
	"github.com/biru-ka2/Attendify-sub000/core/student"
	"github.com/biru-ka2/Attendify-sub000/services/email"
	"github.com/biru-ka2/Attendify-sub000/storage/database/inmem"
	"github.com/biru-ka2/Attendify-sub000/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testEnv struct {
	conf     *core.Config
	app      Server
	repo     attendance.Repository
	ledger   *attendance.Service
	students student.Registry
}

func setup(t *testing.T) testEnv {
	t.Helper()
	conf := testutil.NewConfig()
	conf.Debug = false
	conf.Server.DisableReqLogs = true
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := inmemdb.Open()
	repo := inmemdb.NewAttendanceRepository(db)
	students := inmemdb.NewStudentDirectory(db)

	// set up services
	core.ParseEmailTemplates(conf.WorkDir, true, logger)
	emailsvc.ResetSentMessages()
	ledger := attendance.NewService(repo, logger, conf)

	// set up server
	app := NewServer(ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Ledger:     ledger,
		Statements: attendance.NewStatementBuilder(ledger, students, conf.Attendance.CriticalThreshold),
		Mailer:     emailsvc.NewStatementMailer(emailsvc.NewConsoleServiceMock(conf, logger)),
	})
	return testEnv{conf: conf, app: app, repo: repo, ledger: ledger, students: students}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, conf *core.Config, ref string, roles ...string) string {
	t.Helper()
	token, err := GenerateToken(conf, NewClaims(conf, core.Actor{ID: ref, Name: ref}, roles...))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
