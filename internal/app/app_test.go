package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/models"

	gofakeit "github.com/brianvoe/gofakeit/v6"
)

func TestAppStartup(t *testing.T) {
	app := StartupApp(t)
	StopApp(app)
}

func TestPing(t *testing.T) {
	app := StartupApp(t)
	defer StopApp(app)

	ReqTest(t, http.DefaultClient, app, "GET", "/api/ping", nil, "", "ping", http.StatusOK)
}

func TestRegisterLogin(t *testing.T) {
	app := StartupApp(t)
	defer StopApp(app)

	name := gofakeit.Username()
	form := url.Values{"username": {name}, "password": {"password1"}, "role": {"client"}}

	ReqTest(t, http.DefaultClient, app, "POST", "/api/register", form, "", "register", http.StatusCreated)
	ReqTest(t, http.DefaultClient, app, "POST", "/api/register", form, "", "duplicate", http.StatusBadRequest)

	form.Set("role", "admin")
	form.Set("username", name+"x")
	ReqTest(t, http.DefaultClient, app, "POST", "/api/register", form, "", "bad role", http.StatusBadRequest)

	user := NewUser(t)
	ReqTest(t, user, app, "POST", "/api/login", url.Values{"username": {name}, "password": {"wrong"}}, "", "bad password", http.StatusUnauthorized)
	ReqTest(t, user, app, "GET", "/api/me", nil, "", "anonymous me", http.StatusUnauthorized)
	ReqTest(t, user, app, "POST", "/api/login", url.Values{"username": {name}, "password": {"password1"}}, "", "login", http.StatusOK)

	var me models.User
	Decode(t, ReqTest(t, user, app, "GET", "/api/me", nil, "", "me", http.StatusOK), &me)
	if me.Username != name || me.Role != models.RoleClient {
		t.Fatalf("Expected to be logged in as client '%s', got %+v", name, me)
	}

	ReqTest(t, user, app, "POST", "/api/logout", nil, "", "logout", http.StatusOK)
	ReqTest(t, user, app, "GET", "/api/me", nil, "", "me after logout", http.StatusUnauthorized)
}

func TestJobScenario(t *testing.T) {
	app := StartupApp(t)
	defer StopApp(app)

	client, _ := RegisterAndLogin(t, app, "client")
	x, _ := RegisterAndLogin(t, app, "contractor")
	y, yUser := RegisterAndLogin(t, app, "contractor")

	today := time.Now().UTC().Format(time.DateOnly)
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(time.DateOnly)

	ReqTest(t, client, app, "POST", "/api/jobs", url.Values{"title": {"Late"}, "content": {"c"}, "due_date": {yesterday}}, "", "past due date", http.StatusBadRequest)

	var job models.Job
	Decode(t, ReqTest(t, client, app, "POST", "/api/jobs", url.Values{
		"title":    {gofakeit.BuzzWord()},
		"content":  {gofakeit.Blurb()},
		"budget":   {"1000"},
		"due_date": {today},
	}, "", "create job", http.StatusCreated), &job)

	jobPath := fmt.Sprintf("/api/jobs/%d", job.Id)

	var xBid, yBid models.Bid
	body, ctype := Multipart(t, map[string]string{"price": "500", "note": "x"}, "proposal_file", "offer.pdf")
	Decode(t, ReqTest(t, x, app, "POST", jobPath+"/bids", body, ctype, "x bid", http.StatusOK), &xBid)
	body, ctype = Multipart(t, map[string]string{"price": "400"}, "", "")
	Decode(t, ReqTest(t, y, app, "POST", jobPath+"/bids", body, ctype, "y bid", http.StatusOK), &yBid)
	body, ctype = Multipart(t, map[string]string{"price": "1"}, "proposal_file", "offer.docx")
	ReqTest(t, y, app, "POST", jobPath+"/bids", body, ctype, "proposal must be pdf", http.StatusBadRequest)

	var detail models.JobDetail
	Decode(t, ReqTest(t, client, app, "GET", jobPath, nil, "", "client detail", http.StatusOK), &detail)
	if len(detail.Bids) != 2 || detail.Bids[0].Id != yBid.Id {
		t.Fatalf("Client should see both bids cheapest first, got %+v", detail.Bids)
	}

	var history []models.JobEvent
	Decode(t, ReqTest(t, y, app, "GET", "/api/history", nil, "", "y history", http.StatusOK), &history)
	for _, e := range history {
		if e.EventType == models.EventBidSubmitted && e.ActorId != yUser.Id {
			t.Errorf("Contractor history leaked a foreign bid: %+v", e)
		}
	}

	ReqTest(t, x, app, "POST", fmt.Sprintf("%s/bids/%d/accept", jobPath, xBid.Id), nil, "", "contractor cannot accept", http.StatusForbidden)
	ReqTest(t, client, app, "POST", fmt.Sprintf("%s/bids/%d/accept", jobPath, 999999), nil, "", "unknown bid", http.StatusNotFound)
	ReqTest(t, client, app, "POST", fmt.Sprintf("%s/bids/%d/accept", jobPath, xBid.Id), nil, "", "accept", http.StatusOK)
	ReqTest(t, client, app, "POST", fmt.Sprintf("%s/bids/%d/accept", jobPath, yBid.Id), nil, "", "second accept", http.StatusForbidden)
	if n := CountEvents(t, app, job.Id, models.EventBidSelected); n != 1 {
		t.Errorf("Refused accept must not be recorded, got %d BID_SELECTED events", n)
	}

	body, ctype = Multipart(t, nil, "report_file", "report.pdf")
	ReqTest(t, y, app, "POST", jobPath+"/deliverables", body, ctype, "loser upload", http.StatusForbidden)
	body, ctype = Multipart(t, nil, "report_file", "report.exe")
	ReqTest(t, x, app, "POST", jobPath+"/deliverables", body, ctype, "bad extension", http.StatusBadRequest)
	if n := CountEvents(t, app, job.Id, models.EventReportUploaded); n != 0 {
		t.Errorf("Refused uploads must not be recorded, got %d REPORT_UPLOADED events", n)
	}
	body, ctype = Multipart(t, nil, "report_file", "report.pdf")
	ReqTest(t, x, app, "POST", jobPath+"/deliverables", body, ctype, "upload", http.StatusCreated)

	ReqTest(t, client, app, "POST", jobPath+"/review", url.Values{"decision": {"rejected"}, "message": {"chapter 2 missing"}}, "", "reject", http.StatusOK)

	Decode(t, ReqTest(t, x, app, "GET", jobPath, nil, "", "contractor detail", http.StatusOK), &detail)
	if detail.LastRejection == nil || *detail.LastRejection != "chapter 2 missing" {
		t.Errorf("Contractor should see the rejection reason, got %v", detail.LastRejection)
	}

	body, ctype = Multipart(t, nil, "report_file", "report.zip")
	var v2 models.ResultFile
	Decode(t, ReqTest(t, x, app, "POST", jobPath+"/deliverables", body, ctype, "re-upload", http.StatusCreated), &v2)
	if v2.Version != 2 {
		t.Errorf("Expected second version, got %d", v2.Version)
	}

	ReqTest(t, client, app, "POST", jobPath+"/review", url.Values{"decision": {"accepted"}}, "", "bad decision", http.StatusBadRequest)
	ReqTest(t, client, app, "POST", jobPath+"/review", url.Values{"decision": {"closed"}}, "", "close", http.StatusOK)
	ReqTest(t, client, app, "POST", jobPath+"/review", url.Values{"decision": {"rejected"}}, "", "closed is final", http.StatusForbidden)
	if n := CountEvents(t, app, job.Id, models.EventJobRejected); n != 1 {
		t.Errorf("Review of a closed job must not be recorded, got %d JOB_REJECTED events", n)
	}

	Decode(t, ReqTest(t, y, app, "GET", jobPath, nil, "", "losing bidder detail", http.StatusOK), &detail)
	if len(detail.Bids) != 1 || detail.Bids[0].ContractorId != yUser.Id || detail.WinningBid != nil {
		t.Errorf("Losing bidder should only see own bid, got %+v", detail)
	}

	var mine []models.ContractorJob
	Decode(t, ReqTest(t, x, app, "GET", "/api/contractor/my-jobs", nil, "", "x my jobs", http.StatusOK), &mine)
	if len(mine) != 1 || !mine[0].AmIWinner || mine[0].Status != models.JobClosed {
		t.Errorf("Expected one closed job won by x, got %+v", mine)
	}

	metrics := string(ReqTest(t, http.DefaultClient, app, "GET", "/metrics", nil, "", "metrics", http.StatusOK))
	if !strings.Contains(metrics, `marketplace_job_events_total{event_type="JOB_CLOSED"} 1`) {
		t.Errorf("Expected closed job to be counted in metrics")
	}
}

func TestInvitations(t *testing.T) {
	app := StartupApp(t)
	defer StopApp(app)

	client, _ := RegisterAndLogin(t, app, "client")
	x, xUser := RegisterAndLogin(t, app, "contractor")
	y, _ := RegisterAndLogin(t, app, "contractor")

	var contractors []models.User
	Decode(t, ReqTest(t, client, app, "GET", "/api/contractors", nil, "", "contractors", http.StatusOK), &contractors)
	if len(contractors) != 2 {
		t.Fatalf("Expected 2 contractors, got %d", len(contractors))
	}

	var job models.Job
	Decode(t, ReqTest(t, client, app, "POST", "/api/jobs", url.Values{
		"title":                 {gofakeit.BuzzWord()},
		"content":               {gofakeit.Blurb()},
		"invited_contractor_id": {fmt.Sprint(xUser.Id)},
	}, "", "invite", http.StatusCreated), &job)
	if job.Status != models.JobInvited {
		t.Fatalf("Expected invited job, got %s", job.Status)
	}
	jobPath := fmt.Sprintf("/api/jobs/%d", job.Id)

	var invites []models.Job
	Decode(t, ReqTest(t, x, app, "GET", "/api/contractor/invitations", nil, "", "invitations", http.StatusOK), &invites)
	if len(invites) != 1 || invites[0].Id != job.Id {
		t.Fatalf("Expected invitation for job %d, got %+v", job.Id, invites)
	}

	ReqTest(t, y, app, "GET", jobPath, nil, "", "invited job hidden from others", http.StatusForbidden)
	ReqTest(t, y, app, "POST", jobPath+"/invitation/accept", nil, "", "stranger accept", http.StatusForbidden)
	ReqTest(t, x, app, "POST", jobPath+"/invitation/decline", nil, "", "decline", http.StatusOK)
	ReqTest(t, x, app, "POST", jobPath+"/invitation/accept", nil, "", "accept after decline", http.StatusForbidden)

	var open []models.OpenJob
	Decode(t, ReqTest(t, y, app, "GET", "/api/contractor/jobs", nil, "", "open jobs", http.StatusOK), &open)
	if len(open) != 1 || open[0].Id != job.Id {
		t.Errorf("Declined job should be open for bids, got %+v", open)
	}
}

//// Service

func CountEvents(t *testing.T, app *App, jobId int64, eventType models.EventType) int {
	var n int
	err := app.repo.TestGetDB().Get(&n, `SELECT COUNT(*) FROM job_events WHERE job_id = $1 AND event_type = $2`, jobId, eventType)
	if err != nil {
		t.Fatalf("Could not count %s events of job %d: %v", eventType, jobId, err)
	}
	return n
}

func StartupApp(t *testing.T) *App {
	conn := os.Getenv("TEST_POSTGRES_CONN")
	if conn == "" {
		t.Skip("TEST_POSTGRES_CONN is not set")
	}
	gofakeit.Seed(0)

	cfg, err := config.NewConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.ServerAddress = "127.0.0.1:18080"
	cfg.LogLevel = "warn"
	cfg.UploadsDir = t.TempDir()
	cfg.AutoMigrateUp = "false"
	cfg.AutoMigrateDown = "true"
	cfg.ConnectTimeout = 5 * time.Second
	cfg.Conn = conn

	app, err := NewApp(WithConfig(cfg))
	if err != nil {
		t.Fatal(err)
	}

	app.repo.MigrateDown() // clear potential leftovers
	if err = app.repo.MigrateUp(); err != nil {
		t.Fatal(err)
	}

	go app.Run()
	time.Sleep(time.Second)

	return app
}

func StopApp(app *App) {
	app.stopSig <- os.Interrupt
	<-app.Done
}

func NewUser(t *testing.T) *http.Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func RegisterAndLogin(t *testing.T, app *App, role string) (*http.Client, models.User) {
	name := gofakeit.Username() + gofakeit.DigitN(4)
	form := url.Values{"username": {name}, "password": {"password1"}, "role": {role}}

	var user models.User
	Decode(t, ReqTest(t, http.DefaultClient, app, "POST", "/api/register", form, "", "register "+role, http.StatusCreated), &user)

	client := NewUser(t)
	ReqTest(t, client, app, "POST", "/api/login", form, "", "login "+role, http.StatusOK)
	return client, user
}

// Multipart builds a form body, with a small file under fileField if one is given.
func Multipart(t *testing.T, fields map[string]string, fileField, fileName string) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(gofakeit.Sentence(8)))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

// ReqTest sends body (url.Values, io.Reader or nil) and checks the response status.
func ReqTest(t *testing.T, client *http.Client, app *App, method, endpoint string, body any, contentType, testName string, expectedStatus int) []byte {
	var reader io.Reader
	switch b := body.(type) {
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	case io.Reader:
		reader = b
	}

	req, err := http.NewRequest(method, fmt.Sprintf("http://%s%s", app.cfg.ServerAddress, endpoint), reader)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != expectedStatus {
		t.Fatalf("%s %s '%s' test should return status code %d, got %d, body:\n%s", method, endpoint, testName, expectedStatus, resp.StatusCode, string(respBody))
	}
	return respBody
}

func Decode(t *testing.T, data []byte, v any) {
	err := json.Unmarshal(data, v)
	if err != nil {
		t.Fatalf("Could not decode response '%s': %s", string(data), err)
	}
}
