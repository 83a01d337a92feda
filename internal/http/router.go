package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires the handlers and middleware into the HTTP surface.
// AdminMiddleware guards the administrative routes; Middleware wraps the
// whole router.
type RouterConfig struct {
	Auth            *AuthHandler
	Votes           *VoteHandler
	Roster          *RosterHandler
	Quotas          *QuotaHandler
	Stats           *StatsHandler
	AdminMiddleware func(http.Handler) http.Handler
	Middleware      []func(http.Handler) http.Handler
}

// NewRouter builds the service's HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	adminOnly := func(h http.HandlerFunc) http.Handler {
		if cfg.AdminMiddleware != nil {
			return cfg.AdminMiddleware(h)
		}
		return h
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/api/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})
	}

	if cfg.Votes != nil {
		mux.HandleFunc("/api/vote", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Votes.Submit(w, r)
		})
	}

	if cfg.Roster != nil {
		mux.HandleFunc("/api/employees", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Roster.List(w, r)
		})
		mux.HandleFunc("/api/check_status", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Roster.CheckStatus(w, r)
		})
		mux.HandleFunc("/api/candidates", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Roster.Candidates(w, r)
		})
		mux.Handle("/api/import", adminOnly(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Roster.Import(w, r)
		}))
		mux.Handle("/api/reset", adminOnly(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Roster.Reset(w, r)
		}))
		mux.Handle("/api/rebuild", adminOnly(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Roster.Rebuild(w, r)
		}))
	}

	if cfg.Quotas != nil {
		quotaUpdate := adminOnly(func(w http.ResponseWriter, r *http.Request) {
			cfg.Quotas.Update(w, r)
		})
		mux.HandleFunc("/api/quotas", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Quotas.Get(w, r)
			case http.MethodPut:
				quotaUpdate.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
	}

	if cfg.Stats != nil {
		mux.HandleFunc("/api/vote_stats", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Stats.Rankings(w, r)
		})
		mux.HandleFunc("/api/monthly_participation", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Stats.Participation(w, r)
		})
		mux.HandleFunc("/api/periods", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Stats.Periods(w, r)
		})
		mux.Handle("/api/votes", adminOnly(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Stats.Votes(w, r)
		}))
	}

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
