// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package browserwindow

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
)

const pageTemplate = `
<!DOCTYPE html>
<html>
<head>
    <title>%s</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; text-align: center; }
        .container { max-width: 600px; margin: 0 auto; }
        .message { padding: 20px; border-radius: 5px; margin: 20px 0; }
        .info { background-color: #e7f3ff; border: 1px solid #b3d9ff; color: #0066cc; }
        .success { background-color: #e7f6e7; border: 1px solid #b3e6b3; color: #006600; }
        .error { background-color: #ffe7e7; border: 1px solid #ffb3b3; color: #cc0000; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <div class="message %s">
            %s
        </div>
    </div>
</body>
</html>`

// setSecurityHeaders sets the headers every page is served with.
func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-XSS-Protection", "1; mode=block")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'; script-src 'none'; object-src 'none';")
}

func writePage(w http.ResponseWriter, log *slog.Logger, status int, title, class, body string) {
	setSecurityHeaders(w)
	w.WriteHeader(status)
	if _, err := fmt.Fprintf(w, pageTemplate, title, title, class, body); err != nil {
		log.Warn("failed to write HTML content", "error", err)
	}
}

func writeInfoPage(w http.ResponseWriter, log *slog.Logger) {
	writePage(w, log, http.StatusOK, "Popup Login", "info",
		"<p>Waiting for the login to complete. Please finish signing in in your browser.</p>")
}

func writeSuccessPage(w http.ResponseWriter, log *slog.Logger) {
	writePage(w, log, http.StatusOK, "Login Successful", "success",
		"<p>You have signed in. You can close this window and return to the terminal.</p>")
}

func writeErrorPage(w http.ResponseWriter, log *slog.Logger, err error) {
	writePage(w, log, http.StatusBadRequest, "Login Failed", "error",
		fmt.Sprintf("<p>%s</p>\n            <p>Please try again.</p>", html.EscapeString(err.Error())))
}
