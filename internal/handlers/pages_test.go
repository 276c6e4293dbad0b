package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/complaint-register/api/internal/complaint"
)

func strPtr(v string) *string { return &v }

func TestReplacedFilesOnlyCoversReuploadedFields(t *testing.T) {
	previous := complaint.Record{
		ComplainForm: strPtr("1-form.pdf"),
		Photo:        strPtr("1-a.jpg,1-b.jpg"),
		Video:        strPtr("1-clip.mp4"),
	}
	updated := complaint.Record{Photo: strPtr("2-c.jpg")}

	got := replacedFiles(previous, updated)
	want := []string{"1-a.jpg", "1-b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if all := storedFiles(previous); len(all) != 4 {
		t.Fatalf("expected four stored files, got %v", all)
	}
}

func TestPositiveInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"3", 3},
		{" 25 ", 25},
		{"0", 7},
		{"-2", 7},
		{"abc", 7},
		{"", 7},
	}
	for _, tc := range cases {
		if got := positiveInt(tc.in, 7); got != tc.want {
			t.Errorf("positiveInt(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseComplaintFormEnforcesUploadCaps(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("farmerName", "Asha")
	for i := 0; i < complaint.MaxUploads["complainForm"]+1; i++ {
		part, _ := mw.CreateFormFile("complainForm", "form.pdf")
		_, _ = part.Write([]byte("pdf"))
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/save", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, _, status, message := parseComplaintForm(req)
	if status != http.StatusBadRequest || message == "" {
		t.Fatalf("expected 400 with a message, got %d %q", status, message)
	}
}

func TestParseComplaintFormURLEncoded(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/save", bytes.NewBufferString("serial=C0001&farmerName=Asha"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	values, uploads, status, _ := parseComplaintForm(req)
	if status != 0 {
		t.Fatalf("expected success, got status %d", status)
	}
	if values["serial"] != "C0001" || values["farmerName"] != "Asha" {
		t.Fatalf("unexpected values %v", values)
	}
	if len(uploads) != 0 {
		t.Fatalf("expected no uploads, got %v", uploads)
	}
}
