package main

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/scjoymapper/scjoymapper/scjm"
)

func performRequest(router http.Handler, method string, url string,
	body io.Reader, contentType string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, url, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	router.ServeHTTP(w, req)
	return w
}

func multipartBody(t *testing.T, fields map[string]string,
	fileName string, fileContents []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatal(err)
		}
	}
	if fileContents != nil {
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(fileContents); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, writer.FormDataContentType()
}

func TestServerInfo(t *testing.T) {
	router, _ := scjm.GetServer(true)
	w := performRequest(router, "GET", "/", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / returned %d", w.Code)
	}
	var info map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info["name"] != "SC Joy Mapper" {
		t.Errorf("Got name %q", info["name"])
	}
	if info["version"] == "" {
		t.Error("Version missing from server info")
	}
}

func TestServerPort(t *testing.T) {
	t.Setenv("PORT", "")
	_, port := scjm.GetServer(true)
	if port != ":8080" {
		t.Errorf("Default port %q, want :8080", port)
	}

	t.Setenv("PORT", "9090")
	_, port = scjm.GetServer(true)
	if port != ":9090" {
		t.Errorf("PORT override gave %q, want :9090", port)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	router, _ := scjm.GetServer(true)
	w := performRequest(router, "GET", "/api/catalog", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/catalog returned %d", w.Code)
	}
	var catalog struct {
		Groups map[string][]string `json:"groups"`
		Labels map[string]string   `json:"labels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &catalog); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range catalog.Groups["flight_move"] {
		if name == "flight_move_pitch" {
			found = true
		}
	}
	if !found {
		t.Error("flight_move group is missing flight_move_pitch")
	}
	if catalog.Labels["flight_move_pitch"] != "Pitch" {
		t.Errorf("Got label %q", catalog.Labels["flight_move_pitch"])
	}
}

func TestProfileLifecycle(t *testing.T) {
	router, _ := scjm.GetServer(true)
	defer os.Remove("profiles/LifecycleTest.sccontrols")

	save := `{
		"profile_name": "LifecycleTest",
		"devices": {
			"joystick": {
				"1": {
					"flight_move_pitch": {
						"invert": true,
						"curveMode": "curve",
						"curve": {"points": [{"in": 0.5, "out": 0.25}]}
					}
				}
			}
		}
	}`
	w := performRequest(router, "POST", "/api/profiles",
		strings.NewReader(save), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("Save returned %d - %s", w.Code, w.Body.String())
	}
	var saved struct {
		ProfileName  string `json:"profile_name"`
		LastModified string `json:"last_modified"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if saved.ProfileName != "LifecycleTest" {
		t.Errorf("Saved name %q", saved.ProfileName)
	}
	if saved.LastModified == "" {
		t.Error("Save response has no last_modified")
	}

	w = performRequest(router, "GET", "/api/profiles", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("List returned %d", w.Code)
	}
	var list struct {
		Profiles []string `json:"profiles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, name := range list.Profiles {
		if name == "LifecycleTest" {
			found = true
		}
	}
	if !found {
		t.Errorf("LifecycleTest missing from list %v", list.Profiles)
	}

	w = performRequest(router, "GET", "/api/profiles/LifecycleTest", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Load returned %d - %s", w.Code, w.Body.String())
	}
	var loaded struct {
		Version     string `json:"version"`
		ProfileName string `json:"profile_name"`
		Devices     struct {
			Joystick map[string]map[string]struct {
				Invert *bool  `json:"invert"`
				Mode   string `json:"curveMode"`
				Curve  *struct {
					Points []struct {
						In  float64 `json:"in"`
						Out float64 `json:"out"`
					} `json:"points"`
				} `json:"curve"`
			} `json:"joystick"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.Version != "1.0" {
		t.Errorf("Loaded version %q", loaded.Version)
	}
	pitch := loaded.Devices.Joystick["1"]["flight_move_pitch"]
	if pitch.Invert == nil || !*pitch.Invert {
		t.Error("Loaded profile lost the invert flag")
	}
	if pitch.Mode != "curve" || pitch.Curve == nil ||
		len(pitch.Curve.Points) != 1 || pitch.Curve.Points[0].Out != 0.25 {
		t.Errorf("Loaded profile lost curve data: %+v", pitch)
	}

	w = performRequest(router, "DELETE", "/api/profiles/LifecycleTest", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Delete returned %d", w.Code)
	}

	w = performRequest(router, "GET", "/api/profiles/LifecycleTest", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Load after delete returned %d, want 404", w.Code)
	}
}

func TestSaveProfileRejectsBadRequests(t *testing.T) {
	router, _ := scjm.GetServer(true)

	w := performRequest(router, "POST", "/api/profiles",
		strings.NewReader("not json"), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Bad body returned %d, want 400", w.Code)
	}

	w = performRequest(router, "POST", "/api/profiles",
		strings.NewReader(`{"profile_name": "###"}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Unusable name returned %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "profile name required") {
		t.Errorf("Got error %s", w.Body.String())
	}
}

func TestSaveProfileFlagsUnknownOptions(t *testing.T) {
	router, _ := scjm.GetServer(true)
	defer os.Remove("profiles/UnknownOptions.sccontrols")

	save := `{
		"profile_name": "UnknownOptions",
		"devices": {
			"keyboard": {"warp_core_eject": {"invert": true}}
		}
	}`
	w := performRequest(router, "POST", "/api/profiles",
		strings.NewReader(save), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("Save returned %d - %s", w.Code, w.Body.String())
	}
	var saved struct {
		Logs []struct {
			IsError bool
			Msg     string
		} `json:"logs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &saved); err != nil {
		t.Fatal(err)
	}
	if len(saved.Logs) != 1 {
		t.Fatalf("Got %d log entries, want 1", len(saved.Logs))
	}
	if !strings.Contains(saved.Logs[0].Msg, "warp_core_eject") ||
		!strings.Contains(saved.Logs[0].Msg, "not in the catalog") {
		t.Errorf("Got log %q", saved.Logs[0].Msg)
	}
}

func TestParseActionmapsEndpoint(t *testing.T) {
	router, _ := scjm.GetServer(true)
	contents, err := os.ReadFile("testdata/actionmaps/actionmaps.xml")
	if err != nil {
		t.Fatal(err)
	}
	body, contentType := multipartBody(t, nil, "actionmaps.xml", contents)
	w := performRequest(router, "POST", "/api/actionmaps/parse", body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("Parse returned %d - %s", w.Code, w.Body.String())
	}
	var parsed struct {
		Devices []struct {
			Type     string `json:"device_type"`
			Instance string `json:"instance"`
			Product  string `json:"product"`
			Options  []struct {
				Name string `json:"name"`
			} `json:"options"`
		} `json:"devices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	if len(parsed.Devices) != 3 {
		t.Fatalf("Got %d devices, want 3", len(parsed.Devices))
	}
	if parsed.Devices[0].Type != "keyboard" {
		t.Errorf("First device %q, want keyboard", parsed.Devices[0].Type)
	}
	joystick := parsed.Devices[1]
	if joystick.Type != "joystick" || joystick.Instance != "1" {
		t.Fatalf("Second device %s/%s", joystick.Type, joystick.Instance)
	}
	if joystick.Product == "" {
		t.Error("Joystick product missing")
	}
	if len(joystick.Options) != 2 ||
		joystick.Options[0].Name != "flight_move_pitch" {
		t.Errorf("Joystick options %+v", joystick.Options)
	}
}

func TestParseActionmapsRejects(t *testing.T) {
	router, _ := scjm.GetServer(true)

	w := performRequest(router, "POST", "/api/actionmaps/parse", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Missing file returned %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no actionmaps file in request") {
		t.Errorf("Got error %s", w.Body.String())
	}

	body, contentType := multipartBody(t, nil, "actionmaps.xml",
		[]byte(`<ActionMaps><options type="joystick">`))
	w = performRequest(router, "POST", "/api/actionmaps/parse", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Malformed file returned %d, want 400", w.Code)
	}
}

func TestApplyActionmapsEndpoint(t *testing.T) {
	router, _ := scjm.GetServer(true)
	defer os.Remove("profiles/ApplyTest.sccontrols")

	save := `{
		"profile_name": "ApplyTest",
		"devices": {
			"joystick": {"1": {"flight_move_pitch": {"invert": false}}}
		}
	}`
	w := performRequest(router, "POST", "/api/profiles",
		strings.NewReader(save), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("Save returned %d - %s", w.Code, w.Body.String())
	}

	contents, err := os.ReadFile("testdata/actionmaps/actionmaps.xml")
	if err != nil {
		t.Fatal(err)
	}
	body, contentType := multipartBody(t, map[string]string{"profile": "ApplyTest"},
		"actionmaps.xml", contents)
	w = performRequest(router, "POST", "/api/actionmaps/apply", body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("Apply returned %d - %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.Contains(got, "application/xml") {
		t.Errorf("Content type %q", got)
	}
	updated := w.Body.String()
	if !strings.Contains(updated, `<flight_move_pitch invert="0">`) {
		t.Error("Profile invert setting was not applied")
	}
	if !strings.Contains(updated, `<point in="0.5" out="0.23"/>`) {
		t.Error("Existing curve points should survive an invert change")
	}

	body, contentType = multipartBody(t, map[string]string{"profile": "NoSuchProfile"},
		"actionmaps.xml", contents)
	w = performRequest(router, "POST", "/api/actionmaps/apply", body, contentType)
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown profile returned %d, want 404", w.Code)
	}
}

func TestWriteActionmapsEndpoint(t *testing.T) {
	contents, err := os.ReadFile("testdata/actionmaps/actionmaps.xml")
	if err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(t.TempDir(), "actionmaps.xml")
	if err := os.WriteFile(target, contents, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACTIONMAPS_FILE", target)

	router, _ := scjm.GetServer(true)
	defer os.Remove("profiles/WriteTest.sccontrols")

	save := `{
		"profile_name": "WriteTest",
		"devices": {
			"joystick": {"1": {"flight_move_pitch": {"invert": false}}}
		}
	}`
	w := performRequest(router, "POST", "/api/profiles",
		strings.NewReader(save), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("Save returned %d - %s", w.Code, w.Body.String())
	}

	body, contentType := multipartBody(t, map[string]string{"profile": "WriteTest"}, "", nil)
	w = performRequest(router, "POST", "/api/actionmaps/write", body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("Write returned %d - %s", w.Code, w.Body.String())
	}
	var result struct {
		Success    bool   `json:"success"`
		BackupPath string `json:"backup_path"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.Message == "" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.BackupPath == "" {
		t.Fatal("Expected a backup of the existing game file")
	}

	written, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(written), `<flight_move_pitch invert="0">`) {
		t.Error("Game file was not rewritten with the profile settings")
	}
	backedUp, err := os.ReadFile(result.BackupPath)
	if err != nil {
		t.Fatalf("Backup not readable: %v", err)
	}
	if !bytes.Equal(backedUp, contents) {
		t.Error("Backup does not match the original game file")
	}
}

func TestWriteActionmapsUnconfigured(t *testing.T) {
	t.Setenv("ACTIONMAPS_FILE", "")
	router, _ := scjm.GetServer(true)

	body, contentType := multipartBody(t, map[string]string{"profile": "x"}, "", nil)
	w := performRequest(router, "POST", "/api/actionmaps/write", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Write returned %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "no actionmaps file configured") {
		t.Errorf("Got error %s", w.Body.String())
	}
}

func TestPreviewEndpoint(t *testing.T) {
	router, _ := scjm.GetServer(true)

	w := performRequest(router, "POST", "/api/preview",
		strings.NewReader(`{"invert": true, "exponent": 1.5}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("Preview returned %d - %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content type %q, want image/png", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Preview body is not a PNG")
	}

	w = performRequest(router, "POST", "/api/preview?option=flight_move_pitch&format=jpg",
		strings.NewReader(`{"exponent": 2}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("JPG preview returned %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content type %q, want image/jpeg", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte{0xFF, 0xD8}) {
		t.Error("Preview body is not a JPEG")
	}

	w = performRequest(router, "POST", "/api/preview",
		strings.NewReader("not json"), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Bad body returned %d, want 400", w.Code)
	}
}

func TestPreviewConc(t *testing.T) {
	router, _ := scjm.GetServer(true)

	var wg sync.WaitGroup
	wg.Add(20)
	for n := 0; n < 20; n++ {
		go func() {
			defer wg.Done()
			w := performRequest(router, "POST", "/api/preview",
				strings.NewReader(`{"exponent": 2}`), "application/json")
			if w.Code != http.StatusOK {
				t.Errorf("Preview returned %d", w.Code)
			}
		}()
	}
	wg.Wait()
}
