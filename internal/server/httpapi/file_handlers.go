package httpapi

import (
	"fmt"
	"io"
	"net/http"

	"filevault/internal/common"
)

// uploads above this size spill to disk inside ParseMultipartForm
const maxUploadMemory = 32 << 20

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "upload", nil)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		s.renderError(w, r, fmt.Errorf("%w: malformed multipart form", common.ErrorValidation), "")
		return
	}
	defer func() {
		// staging files created by ParseMultipartForm are removed regardless
		// of the upload outcome; failures are logged only
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn(r.Context(), "staging cleanup failed", "error", err)
		}
	}()

	content, header, err := r.FormFile("file")
	if err != nil {
		s.renderError(w, r, fmt.Errorf("%w: no file provided", common.ErrorValidation), "")
		return
	}
	defer content.Close()

	folderID, err := optionalFolderID(r.FormValue("folderId"))
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	mimetype := header.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	file, err := s.catalog.UploadFile(r.Context(), userID(r), folderID, header.Filename, mimetype, header.Size, content)
	if err != nil {
		s.renderError(w, r, err, "Folder not found")
		return
	}

	s.logger.Info(r.Context(), "file uploaded", "file_id", file.ID, "filename", file.Filename)
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "File uploaded successfully!")
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	view, err := s.catalog.GetFile(r.Context(), id, userID(r))
	if err != nil {
		s.renderError(w, r, err, "File not found")
		return
	}

	s.renderPage(w, http.StatusOK, "file", view)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	file, res, err := s.catalog.DownloadFile(r.Context(), id, userID(r))
	if err != nil {
		s.renderError(w, r, err, "File not found")
		return
	}

	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}

	defer res.Content.Close()
	w.Header().Set("Content-Type", file.Mimetype)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	if _, err := io.Copy(w, res.Content); err != nil {
		s.logger.Error(r.Context(), "download stream interrupted", "file_id", file.ID, "error", err)
	}
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	if err := s.catalog.DeleteFile(r.Context(), id, userID(r)); err != nil {
		s.renderError(w, r, err, "File not found")
		return
	}

	http.Redirect(w, r, "/folders", http.StatusFound)
}
