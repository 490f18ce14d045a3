package webhook

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"jopacoin/internal/database"
)

type Payload struct {
	Event     string    `json:"event"`
	GuildID   string    `json:"guild_id,omitempty"`
	MatchID   string    `json:"match_id,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	Winner    string    `json:"winner,omitempty"`
	Payout    int       `json:"payout,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SendSettlementNotification notifica um apostador de que sua aposta foi
// liquidada. Payout é o valor creditado (0 = aposta perdida).
func SendSettlementNotification(guildID, matchID, playerID, winner string, payout int) {
	// Look up webhook URL for the bettor
	url, err := database.GetWebhook(playerID)
	if err != nil || url == "" {
		return // No webhook configured
	}

	payload := Payload{
		Event:     "bet_settled",
		GuildID:   guildID,
		MatchID:   matchID,
		PlayerID:  playerID,
		Winner:    winner,
		Payout:    payout,
		Timestamp: time.Now(),
	}

	// Send asynchronously
	go func(targetURL string, p Payload) {
		jsonBytes, _ := json.Marshal(p)

		client := http.Client{
			Timeout: 5 * time.Second,
		}

		resp, err := client.Post(targetURL, "application/json", bytes.NewBuffer(jsonBytes))
		if err != nil {
			log.Printf("Failed to trigger webhook for player %s: %v", playerID, err)
			return
		}
		defer resp.Body.Close()
	}(url, payload)
}

func TestWebhook(url string) error {
	payload := Payload{
		Event:     "test",
		Timestamp: time.Now(),
	}
	jsonBytes, _ := json.Marshal(payload)
	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
