package middleware

import (
	"net/http"

	"github.com/aliabbas776/MATCHMATE-BACKEND/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
