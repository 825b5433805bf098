package handler

import (
	"html/template"
	"net/http"
)

// successTemplate renders the confirmation page. html/template escapes
// the interpolated email in both the text and attribute contexts.
var successTemplate = template.Must(template.New("success").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Subscription received</title>
</head>
<body>
<h1>Subscription received</h1>
<p>A subscription request was sent for <strong>{{.Email}}</strong>.
Watch that inbox for a confirmation message from the forum.</p>
<p><a href="{{.HomeURL}}">Return home</a></p>
</body>
</html>
`))

type successPage struct {
	Email   string
	HomeURL string
}

func (h *SubscribeHandler) renderSuccess(w http.ResponseWriter, email string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := successTemplate.Execute(w, successPage{Email: email, HomeURL: h.homeURL}); err != nil {
		h.logger.Error("render confirmation page", "error", err)
	}
}
