package flow

import (
	"html/template"
	"net/http"
)

var successPage = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization complete</title></head>
<body>
<h1>Authorization successful</h1>
<p>You can close this window and return to the application.</p>
</body>
</html>
`))

var failurePage = template.Must(template.New("failure").Parse(`<!DOCTYPE html>
<html>
<head><title>Authorization failed</title></head>
<body>
<h1>Authorization failed</h1>
<p>{{.}}</p>
</body>
</html>
`))

func writePage(w http.ResponseWriter, status int, page *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "close")
	w.WriteHeader(status)
	_ = page.Execute(w, data)
}
