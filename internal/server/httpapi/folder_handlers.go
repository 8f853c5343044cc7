package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"filevault/internal/common"
)

// pathID decodes the {id} path segment. Malformed ids are a boundary
// validation error, they never reach the catalog.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed id", common.ErrorValidation)
	}
	return id, nil
}

// optionalFolderID decodes a folder id form field that may be absent.
func optionalFolderID(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed folder id", common.ErrorValidation)
	}
	return &id, nil
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, fmt.Errorf("%w: malformed form", common.ErrorValidation), "")
		return
	}

	parentID, err := optionalFolderID(r.PostFormValue("parentId"))
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	_, err = s.catalog.CreateFolder(r.Context(), userID(r), r.PostFormValue("name"), parentID)
	if err != nil {
		s.renderError(w, r, err, "Folder not found")
		return
	}

	if parentID != nil {
		http.Redirect(w, r, fmt.Sprintf("/folders/%d", *parentID), http.StatusFound)
		return
	}
	http.Redirect(w, r, "/folders", http.StatusFound)
}

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := s.catalog.ListRootFolders(r.Context(), userID(r))
	if err != nil {
		s.renderError(w, r, err, "Folder not found")
		return
	}

	s.renderPage(w, http.StatusOK, "folders", struct{ Folders any }{Folders: folders})
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	view, err := s.catalog.GetFolder(r.Context(), id, userID(r))
	if err != nil {
		s.renderError(w, r, err, "Folder not found")
		return
	}

	s.renderPage(w, http.StatusOK, "folder", view)
}

func (s *Server) handleRenameFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, fmt.Errorf("%w: malformed form", common.ErrorValidation), "")
		return
	}

	if err := s.catalog.RenameFolder(r.Context(), id, userID(r), r.PostFormValue("name")); err != nil {
		s.renderError(w, r, err, "Folder not found")
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/folders/%d", id), http.StatusFound)
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, err, "")
		return
	}

	if err := s.catalog.DeleteFolder(r.Context(), id, userID(r)); err != nil {
		s.renderError(w, r, err, "Folder not found")
		return
	}

	http.Redirect(w, r, "/folders", http.StatusFound)
}
