package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Team identifica um dos lados da partida
const (
	TeamRadiant = "radiant"
	TeamDire    = "dire"
)

// Modos de aposta suportados
const (
	BetModeHouse = "house"
	BetModePool  = "pool"
)

// Submission é um voto de resultado (ou de abort) registrado no snapshot
type Submission struct {
	Vote    string `json:"vote"`
	IsAdmin bool   `json:"is_admin"`
}

// PendingMatch é o registro da partida em andamento de uma guild.
// É serializado em JSON na tabela pending_matches e funciona como ponto de
// recuperação pós-crash; no máximo um por guild.
type PendingMatch struct {
	GuildID          string                `json:"guild_id"`
	RadiantIDs       []string              `json:"radiant_ids"`
	DireIDs          []string              `json:"dire_ids"`
	ExcludedIDs      []string              `json:"excluded_ids"`
	RoleAssignments  map[string]string     `json:"role_assignments"`
	ShuffleTS        time.Time             `json:"shuffle_ts"`
	BetLockUntil     time.Time             `json:"bet_lock_until"`
	BetMode          string                `json:"bet_mode"`
	Submissions      map[string]Submission `json:"submissions"`
	AbortSubmissions map[string]Submission `json:"abort_submissions"`

	// Progresso da liquidação: ID da partida fixado antes do primeiro
	// passo e marca d'água do último passo concluído, para que um retry
	// continue do ponto certo em vez de aplicar dinheiro duas vezes
	FinalizeMatchID string `json:"finalize_match_id,omitempty"`
	FinalizeStep    int    `json:"finalize_step,omitempty"`

	// Campos opacos da camada de apresentação (passthrough)
	ChannelID string `json:"channel_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// Side retorna o lado em que o jogador participa, ou "" se não participa
func (pm *PendingMatch) Side(userID string) string {
	for _, id := range pm.RadiantIDs {
		if id == userID {
			return TeamRadiant
		}
	}
	for _, id := range pm.DireIDs {
		if id == userID {
			return TeamDire
		}
	}
	return ""
}

// Participants retorna todos os jogadores escalados (radiant + dire)
func (pm *PendingMatch) Participants() []string {
	out := make([]string, 0, len(pm.RadiantIDs)+len(pm.DireIDs))
	out = append(out, pm.RadiantIDs...)
	out = append(out, pm.DireIDs...)
	return out
}

// TeamIDs retorna o roster do time informado
func (pm *PendingMatch) TeamIDs(team string) []string {
	if team == TeamRadiant {
		return pm.RadiantIDs
	}
	return pm.DireIDs
}

// SavePendingMatch grava (upsert) o snapshot da partida em andamento
func SavePendingMatch(pm *PendingMatch) error {
	snapshot, err := json.Marshal(pm)
	if err != nil {
		return err
	}
	query := prepareQuery(`INSERT INTO pending_matches (guild_id, snapshot, bet_mode, shuffle_ts, bet_lock_until, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			snapshot = excluded.snapshot,
			bet_mode = excluded.bet_mode,
			shuffle_ts = excluded.shuffle_ts,
			bet_lock_until = excluded.bet_lock_until,
			updated_at = excluded.updated_at`)
	_, err = DB.Exec(query, pm.GuildID, string(snapshot), pm.BetMode, pm.ShuffleTS, pm.BetLockUntil, time.Now())
	return err
}

// GetPendingMatch carrega o snapshot da guild; retorna nil se não houver
func GetPendingMatch(guildID string) (*PendingMatch, error) {
	var snapshot string
	query := prepareQuery("SELECT snapshot FROM pending_matches WHERE guild_id = ?")
	err := DB.QueryRow(query, guildID).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodePendingMatch(snapshot)
}

func decodePendingMatch(snapshot string) (*PendingMatch, error) {
	pm := &PendingMatch{}
	if err := json.Unmarshal([]byte(snapshot), pm); err != nil {
		return nil, err
	}
	if pm.Submissions == nil {
		pm.Submissions = make(map[string]Submission)
	}
	if pm.AbortSubmissions == nil {
		pm.AbortSubmissions = make(map[string]Submission)
	}
	return pm, nil
}

// GetAllPendingMatches carrega todos os snapshots (recuperação no startup)
func GetAllPendingMatches() ([]*PendingMatch, error) {
	rows, err := DB.Query("SELECT snapshot FROM pending_matches")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*PendingMatch
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			continue
		}
		pm, err := decodePendingMatch(snapshot)
		if err != nil {
			continue
		}
		matches = append(matches, pm)
	}
	return matches, nil
}

// DeletePendingMatch remove o snapshot da guild (fim do ciclo de vida)
func DeletePendingMatch(guildID string) error {
	query := prepareQuery("DELETE FROM pending_matches WHERE guild_id = ?")
	_, err := DB.Exec(query, guildID)
	return err
}
