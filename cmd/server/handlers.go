package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/xtding233/pocket-encounters/internal/bot"
	"github.com/xtding233/pocket-encounters/internal/gacha"
	"github.com/xtding233/pocket-encounters/internal/profile"
)

type pullResp struct {
	Outcomes []outcomeResp `json:"outcomes,omitempty"`
	Cost     int           `json:"cost,omitempty"`
	Balance  int           `json:"balance"`
	Pity     gacha.Pity    `json:"pity"`
	Err      string        `json:"err,omitempty"`
}

type outcomeResp struct {
	Tier     int    `json:"tier"`
	Item     string `json:"item,omitempty"`
	Featured bool   `json:"featured,omitempty"`
}

type profileResp struct {
	profile.Profile
	Level int    `json:"level"`
	Err   string `json:"err,omitempty"`
}

type leaderboardResp struct {
	Users []string `json:"users"`
	Err   string   `json:"err,omitempty"`
}

type puller interface {
	Pull(ctx context.Context, userID string, n int) (bot.PullResult, error)
}

type profileGetter interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
}

type leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]string, error)
}

type api struct {
	pulls    puller
	profiles profileGetter
	board    leaderboard
}

func parseInt(r *http.Request, key string) (int, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *api) pull(n int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.URL.Query().Get("user")
		if user == "" {
			http.Error(w, "missing param user", http.StatusBadRequest)
			return
		}
		res, err := a.pulls.Pull(r.Context(), user, n)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, profile.ErrInsufficientFunds) {
				code = http.StatusPaymentRequired
			}
			writeJSON(w, code, pullResp{Err: err.Error()})
			return
		}
		resp := pullResp{Cost: res.Cost, Balance: res.Balance, Pity: res.Pity}
		for _, o := range res.Outcomes {
			resp.Outcomes = append(resp.Outcomes, outcomeResp{Tier: int(o.Tier), Item: o.Item, Featured: o.Featured})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (a *api) profile(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing param user", http.StatusBadRequest)
		return
	}
	p, err := a.profiles.Get(r.Context(), user)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, profileResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, profileResp{Profile: p, Level: p.Level()})
}

func (a *api) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok, msg := parseInt(r, "limit")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !ok {
		limit = 10
	}
	users, err := a.board.Leaderboard(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, leaderboardResp{Err: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResp{Users: users})
}

func newMux(a *api, ws http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pull", a.pull(1))
	mux.HandleFunc("GET /ten_pull", a.pull(10))
	mux.HandleFunc("GET /profile", a.profile)
	if a.board != nil {
		mux.HandleFunc("GET /leaderboard", a.leaderboard)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if ws != nil {
		mux.Handle("/ws", ws)
	}
	return mux
}
