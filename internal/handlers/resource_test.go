package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/askmate/apiserver/types"
)

func TestParseMultipartUpdate(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("title", "Revised notes"); err != nil {
		t.Fatal(err)
	}
	if err := writer.WriteField("status", "approved"); err != nil {
		t.Fatal(err)
	}
	part, err := writer.CreateFormFile("file", "notes-v2.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte("%PDF-1.4 revised")); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("PATCH", "/api/resources/1", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	input, err := parseMultipartUpdate(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if input.Title == nil || *input.Title != "Revised notes" {
		t.Errorf("title = %v, want Revised notes", input.Title)
	}
	if input.Status == nil || *input.Status != types.StatusApproved {
		t.Errorf("status = %v, want approved", input.Status)
	}
	if input.Description != nil || input.Category != nil || input.URL != nil {
		t.Error("absent form fields must stay nil")
	}
	if input.File == nil {
		t.Fatal("file part must populate the upload")
	}
	if input.File.Filename != "notes-v2.pdf" || string(input.File.Data) != "%PDF-1.4 revised" {
		t.Errorf("file = %q (%d bytes)", input.File.Filename, len(input.File.Data))
	}
}

func TestParseMultipartUpdateWithoutFile(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("description", "Updated description"); err != nil {
		t.Fatal(err)
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("PATCH", "/api/resources/1", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	input, err := parseMultipartUpdate(req)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if input.Description == nil || *input.Description != "Updated description" {
		t.Errorf("description = %v, want Updated description", input.Description)
	}
	if input.File != nil {
		t.Error("missing file part must leave File nil")
	}
}
