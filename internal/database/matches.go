package database

import (
	"encoding/json"
	"time"
)

// InsertMatch grava a partida finalizada (imutável depois de criada)
func InsertMatch(m *MatchRecord) error {
	radiant, err := json.Marshal(m.RadiantIDs)
	if err != nil {
		return err
	}
	dire, err := json.Marshal(m.DireIDs)
	if err != nil {
		return err
	}
	excluded, err := json.Marshal(m.ExcludedIDs)
	if err != nil {
		return err
	}

	query := prepareQuery(`INSERT INTO matches (id, guild_id, winner, radiant_ids, dire_ids, excluded_ids, shuffled_at, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = DB.Exec(query, m.ID, m.GuildID, m.Winner, string(radiant), string(dire), string(excluded), m.ShuffledAt, m.FinalizedAt)
	return err
}

// RecordMatch grava a partida finalizada e incrementa os contadores de
// vitória/derrota dos participantes em uma única transação
func RecordMatch(m *MatchRecord, winners, losers []string) error {
	radiant, err := json.Marshal(m.RadiantIDs)
	if err != nil {
		return err
	}
	dire, err := json.Marshal(m.DireIDs)
	if err != nil {
		return err
	}
	excluded, err := json.Marshal(m.ExcludedIDs)
	if err != nil {
		return err
	}

	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := prepareQuery(`INSERT INTO matches (id, guild_id, winner, radiant_ids, dire_ids, excluded_ids, shuffled_at, finalized_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.Exec(query, m.ID, m.GuildID, m.Winner, string(radiant), string(dire), string(excluded), m.ShuffledAt, m.FinalizedAt); err != nil {
		return err
	}

	if err := RecordResultCounters(tx, winners, losers); err != nil {
		return err
	}

	return tx.Commit()
}

// MatchExists informa se a partida já foi gravada
func MatchExists(matchID string) (bool, error) {
	var n int
	query := prepareQuery("SELECT COUNT(*) FROM matches WHERE id = ?")
	if err := DB.QueryRow(query, matchID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetMatch carrega uma partida finalizada pelo ID
func GetMatch(matchID string) (*MatchRecord, error) {
	m := &MatchRecord{}
	var radiant, dire, excluded string
	query := prepareQuery(`SELECT id, guild_id, winner, radiant_ids, dire_ids, excluded_ids, shuffled_at, finalized_at
		FROM matches WHERE id = ?`)
	err := DB.QueryRow(query, matchID).Scan(&m.ID, &m.GuildID, &m.Winner, &radiant, &dire, &excluded, &m.ShuffledAt, &m.FinalizedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(radiant), &m.RadiantIDs); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(dire), &m.DireIDs); err != nil {
		return nil, err
	}
	if excluded != "" {
		if err := json.Unmarshal([]byte(excluded), &m.ExcludedIDs); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// GetRecentMatches retorna as últimas partidas finalizadas da guild
func GetRecentMatches(guildID string, limit int) ([]*MatchRecord, error) {
	query := prepareQuery(`SELECT id, winner, finalized_at FROM matches
		WHERE guild_id = ? ORDER BY finalized_at DESC LIMIT ?`)
	rows, err := DB.Query(query, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*MatchRecord
	for rows.Next() {
		m := &MatchRecord{GuildID: guildID}
		if err := rows.Scan(&m.ID, &m.Winner, &m.FinalizedAt); err != nil {
			continue
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// UpdateRating grava o novo rating Glicko do jogador
func UpdateRating(playerID string, rating, deviation, volatility float64) error {
	if err := EnsurePlayer(playerID); err != nil {
		return err
	}
	query := prepareQuery("UPDATE players SET rating = ?, deviation = ?, volatility = ? WHERE id = ?")
	_, err := DB.Exec(query, rating, deviation, volatility, playerID)
	return err
}

// CreateAPIKey cria uma nova chave de API
func CreateAPIKey(key, userID, name string) error {
	query := prepareQuery("INSERT INTO api_keys (key, user_id, name, created_at) VALUES (?, ?, ?, ?)")
	_, err := DB.Exec(query, key, userID, name, time.Now())
	return err
}

// GetUserByAPIKey retorna o userID de uma chave de API
func GetUserByAPIKey(key string) (string, error) {
	var userID string
	query := prepareQuery("SELECT user_id FROM api_keys WHERE key = ?")
	err := DB.QueryRow(query, key).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

// ListAPIKeys lista todas as chaves de API de um usuário
func ListAPIKeys(userID string) ([]APIKeyStruct, error) {
	query := prepareQuery("SELECT key, name, created_at FROM api_keys WHERE user_id = ?")
	rows, err := DB.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKeyStruct
	for rows.Next() {
		var k APIKeyStruct
		if err := rows.Scan(&k.Key, &k.Name, &k.CreatedAt); err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// DeleteAPIKey deleta uma chave de API pelo prefixo
func DeleteAPIKey(userID, prefix string) error {
	query := prepareQuery("DELETE FROM api_keys WHERE user_id = ? AND key LIKE ?")
	_, err := DB.Exec(query, userID, prefix+"%")
	return err
}
