package httpapi

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"filevault/internal/common"
)

// The page templates are deliberately spartan: the interesting surface of
// this service is the catalog, not the markup.
var pages = template.Must(template.New("pages").Parse(`
{{define "index"}}<!DOCTYPE html>
<html><body>
<h1>FileVault</h1>
{{if .User}}<p>Signed in as {{.User.Email}}</p>
<p><a href="/folders">Your folders</a> | <a href="/upload-form">Upload a file</a></p>
<form method="POST" action="/logout"><button type="submit">Log out</button></form>
{{else}}<p><a href="/login">Log in</a> | <a href="/register">Register</a></p>
{{end}}</body></html>{{end}}

{{define "register"}}<!DOCTYPE html>
<html><body>
<h1>Register</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="POST" action="/register">
<input type="email" name="email" placeholder="Email">
<input type="password" name="password" placeholder="Password">
<button type="submit">Register</button>
</form>
</body></html>{{end}}

{{define "login"}}<!DOCTYPE html>
<html><body>
<h1>Log in</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
<form method="POST" action="/login">
<input type="email" name="email" placeholder="Email">
<input type="password" name="password" placeholder="Password">
<button type="submit">Log in</button>
</form>
</body></html>{{end}}

{{define "folders"}}<!DOCTYPE html>
<html><body>
<h1>Your folders</h1>
<ul>
{{range .Folders}}<li><a href="/folders/{{.ID}}">{{.Name}}</a></li>
{{end}}</ul>
<form method="POST" action="/create-folder">
<input type="text" name="name" placeholder="Folder name">
<button type="submit">Create folder</button>
</form>
</body></html>{{end}}

{{define "folder"}}<!DOCTYPE html>
<html><body>
<h1>{{.Folder.Name}}</h1>
<h2>Subfolders</h2>
<ul>
{{range .Subfolders}}<li><a href="/folders/{{.ID}}">{{.Name}}</a></li>
{{end}}</ul>
<h2>Files</h2>
<ul>
{{range .Files}}<li><a href="/files/{{.ID}}">{{.Filename}}</a></li>
{{end}}</ul>
<form method="POST" action="/create-folder">
<input type="hidden" name="parentId" value="{{.Folder.ID}}">
<input type="text" name="name" placeholder="Folder name">
<button type="submit">Create subfolder</button>
</form>
<form method="POST" action="/folders/{{.Folder.ID}}">
<input type="hidden" name="_method" value="PUT">
<input type="text" name="name" value="{{.Folder.Name}}">
<button type="submit">Rename</button>
</form>
<form method="POST" action="/folders/{{.Folder.ID}}">
<input type="hidden" name="_method" value="DELETE">
<button type="submit">Delete folder</button>
</form>
</body></html>{{end}}

{{define "file"}}<!DOCTYPE html>
<html><body>
<h1>{{.File.Filename}}</h1>
<p>Type: {{.File.Mimetype}}, size: {{.File.Size}} bytes</p>
{{if .Folder}}<p>In folder: <a href="/folders/{{.Folder.ID}}">{{.Folder.Name}}</a></p>{{end}}
<p><a href="/download/{{.File.ID}}">Download</a></p>
<form method="POST" action="/files/{{.File.ID}}">
<input type="hidden" name="_method" value="DELETE">
<button type="submit">Delete</button>
</form>
</body></html>{{end}}

{{define "upload"}}<!DOCTYPE html>
<html><body>
<h1>Upload a file</h1>
<form method="POST" action="/upload" enctype="multipart/form-data">
<input type="file" name="file">
<input type="text" name="folderId" placeholder="Folder id (optional)">
<button type="submit">Upload</button>
</form>
</body></html>{{end}}
`))

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error(context.Background(), "template render failed", "page", name, "error", err)
	}
}

// renderError maps service errors onto the HTTP taxonomy. notFoundMsg names
// the missing resource ("Folder not found" / "File not found").
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrorUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, common.ErrorForbidden):
		http.Error(w, "Unauthorized", http.StatusForbidden)
	case errors.Is(err, common.ErrorNotFound):
		http.Error(w, notFoundMsg, http.StatusNotFound)
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
