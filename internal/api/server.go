package api

import (
	"encoding/json"
	"log"
	"net/http"

	"jopacoin/internal/database"
	"jopacoin/internal/wager"
	"jopacoin/pkg/config"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type BalanceResponse struct {
	UserID  string  `json:"user_id"`
	Balance int     `json:"balance"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Rating  float64 `json:"rating"`
}

type MatchResponse struct {
	InProgress   bool     `json:"in_progress"`
	RadiantIDs   []string `json:"radiant_ids,omitempty"`
	DireIDs      []string `json:"dire_ids,omitempty"`
	BetMode      string   `json:"bet_mode,omitempty"`
	BetLockUntil int64    `json:"bet_lock_until,omitempty"`
	State        string   `json:"state,omitempty"`
}

type OddsResponse struct {
	Mode              string  `json:"mode"`
	TotalPool         int     `json:"total_pool"`
	RadiantTotal      int     `json:"radiant_total"`
	DireTotal         int     `json:"dire_total"`
	RadiantMultiplier float64 `json:"radiant_multiplier"`
	DireMultiplier    float64 `json:"dire_multiplier"`
}

func AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if key == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Missing API Key"})
			return
		}

		userID, err := database.GetUserByAPIKey(key)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "Invalid API Key"})
			return
		}

		// Add UserID to header for next handler (simple context passing)
		r.Header.Set("X-User-ID", userID)
		next(w, r)
	}
}

func HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := r.Header.Get("X-User-ID")
	player, err := database.GetPlayer(userID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Error reading player"})
		return
	}

	json.NewEncoder(w).Encode(BalanceResponse{
		UserID:  userID,
		Balance: player.Balance,
		Wins:    player.Wins,
		Losses:  player.Losses,
		Rating:  player.Rating,
	})
}

func HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	users, err := database.GetLeaderboard(25)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Error reading leaderboard"})
		return
	}
	json.NewEncoder(w).Encode(users)
}

// HandleMatch retorna o estado da partida em andamento de uma guild
func HandleMatch(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("guild_id")
	if guildID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "guild_id is required"})
		return
	}

	pm, err := database.GetPendingMatch(guildID)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Error reading match"})
		return
	}
	if pm == nil {
		json.NewEncoder(w).Encode(MatchResponse{InProgress: false})
		return
	}

	json.NewEncoder(w).Encode(MatchResponse{
		InProgress:   true,
		RadiantIDs:   pm.RadiantIDs,
		DireIDs:      pm.DireIDs,
		BetMode:      pm.BetMode,
		BetLockUntil: pm.BetLockUntil.Unix(),
	})
}

// HandleOdds retorna o pote atual da guild
func HandleOdds(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("guild_id")
	if guildID == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "guild_id is required"})
		return
	}

	odds, err := wager.GetPotOdds(guildID)
	if err != nil {
		if wager.IsRejection(err) {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "No match in progress"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "Error reading odds"})
		return
	}

	json.NewEncoder(w).Encode(OddsResponse{
		Mode:              odds.Mode,
		TotalPool:         odds.TotalPool,
		RadiantTotal:      odds.RadiantTotal,
		DireTotal:         odds.DireTotal,
		RadiantMultiplier: odds.RadiantMultiplier,
		DireMultiplier:    odds.DireMultiplier,
	})
}

func Start() {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/me", AuthMiddleware(HandleMe))
	mux.HandleFunc("/api/v1/leaderboard", HandleLeaderboard)
	mux.HandleFunc("/api/v1/match", HandleMatch)
	mux.HandleFunc("/api/v1/odds", HandleOdds)

	port := config.Bot.ApiPort
	if port == "" {
		port = ":8080"
	}

	log.Printf("Starting API Server on %s", port)
	if err := http.ListenAndServe(port, mux); err != nil {
		log.Fatal("API Server failed:", err)
	}
}
