package transport

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/syncteam/internal/domain/attachment"
	"github.com/rpggio/syncteam/internal/domain/record"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 64 << 10

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, attachment.MaxSize+multipartOverhead)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file part")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, attachment.MaxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading file part")
		return
	}
	if len(content) > attachment.MaxSize {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	mimeType := r.FormValue("mime_type")
	if mimeType == "" {
		mimeType = header.Header.Get("Content-Type")
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		} else {
			mimeType = http.DetectContentType(content)
		}
	}

	saved, err := s.records.Attach(r.Context(), caller(r), record.Upload{
		Name:       filepath.Base(header.Filename),
		MIMEType:   mimeType,
		EntityType: r.FormValue("entity_type"),
		EntityID:   r.FormValue("entity_id"),
		Content:    content,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, saved)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rec, blob, err := s.records.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	name, _ := rec["name"].(string)
	mimeType := blob.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Content)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Content)
}
