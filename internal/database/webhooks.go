package database

import (
	"database/sql"

	"jopacoin/pkg/config"
)

// SetWebhook define a URL de webhook de um jogador (notificações de settlement)
func SetWebhook(playerID, url string) error {
	if config.DBType == "postgres" {
		query := `INSERT INTO players (id, balance, webhook_url) VALUES ($1, 0, $2)
				  ON CONFLICT(id) DO UPDATE SET webhook_url = $2`
		_, err := DB.Exec(query, playerID, url)
		return err
	}
	query := "INSERT INTO players (id, balance, webhook_url) VALUES (?, 0, ?) ON CONFLICT(id) DO UPDATE SET webhook_url = ?"
	_, err := DB.Exec(query, playerID, url, url)
	return err
}

// GetWebhook retorna a URL de webhook de um jogador (vazio se não configurado)
func GetWebhook(playerID string) (string, error) {
	var url sql.NullString
	query := prepareQuery("SELECT webhook_url FROM players WHERE id = ?")
	err := DB.QueryRow(query, playerID).Scan(&url)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return url.String, nil
}

// DeleteWebhook remove a URL de webhook de um jogador
func DeleteWebhook(playerID string) error {
	query := prepareQuery("UPDATE players SET webhook_url = NULL WHERE id = ?")
	_, err := DB.Exec(query, playerID)
	return err
}
