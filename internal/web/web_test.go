package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/complaint-register/api/internal/complaint"
)

func TestRendererPages(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	name := "Asha <script>"
	date := "05-01-2024"
	photo := "1-a.jpg,2-b.jpg"
	rec := complaint.Record{Serial: "C0001", FarmerName: &name, ComplainDate: &date, Photo: &photo}

	var edit bytes.Buffer
	err = r.Render(&edit, "edit", struct {
		Record        *complaint.Record
		ReferenceDays bool
		MaxPhotos     int
		MaxVideos     int
	}{Record: &rec, MaxPhotos: 5, MaxVideos: 5})
	if err != nil {
		t.Fatalf("render edit: %v", err)
	}
	body := edit.String()
	if !strings.Contains(body, `value="2024-01-05"`) {
		t.Fatalf("expected form date in edit page")
	}
	if strings.Contains(body, "<script>") {
		t.Fatalf("expected farmer name to be escaped")
	}
	if !strings.Contains(body, "/uploads/2-b.jpg") {
		t.Fatalf("expected second photo link")
	}

	var report bytes.Buffer
	if err := r.Render(&report, "replacement_report", []complaint.Record{rec}); err != nil {
		t.Fatalf("render replacement report: %v", err)
	}
	if !strings.Contains(report.String(), "/update-replacement/C0001") {
		t.Fatalf("expected mark-received form")
	}
	if !strings.Contains(report.String(), "no replacement status are treated as not applicable") {
		t.Fatalf("expected report to explain that records without a replacement status are not listed")
	}

	if err := r.Render(&bytes.Buffer{}, "missing", nil); err == nil {
		t.Fatalf("expected unknown page to fail")
	}
}

func TestSortLinkTogglesOrder(t *testing.T) {
	view := ListView{Sort: "serial", Size: "10"}
	if got := sortLink(view, "serial"); got != "/?page=1&pageSize=10&sortBy=serial&order=desc" {
		t.Fatalf("unexpected toggle link %q", got)
	}
	if got := sortLink(view, "status"); got != "/?page=1&pageSize=10&sortBy=status&order=asc" {
		t.Fatalf("unexpected new-column link %q", got)
	}
}
