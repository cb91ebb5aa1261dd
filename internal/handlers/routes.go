package handlers

import "net/http"

// Routes registers every endpoint on a new mux. Ledger endpoints sit behind
// RequireAuth.
func (h *Handlers) Routes(staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	if staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)

	mux.Handle("GET /dashboard", h.RequireAuth(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /api/expenses", h.RequireAuth(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("POST /api/expenses", h.RequireAuth(http.HandlerFunc(h.CreateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", h.RequireAuth(http.HandlerFunc(h.DeleteExpense)))
	mux.Handle("GET /api/balance", h.RequireAuth(http.HandlerFunc(h.SuggestBalance)))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
	})

	return mux
}
