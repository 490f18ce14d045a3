package database

import (
	"database/sql"
	"time"
)

// PlaceBet debita o effective stake e insere a aposta em uma única
// transação. Todas as pré-condições sensíveis a corrida são revalidadas
// aqui dentro, contra o estado persistido:
//   - ainda existe partida em andamento e a janela de apostas está aberta
//     (bet_lock_until é relido do banco, nunca de cache);
//   - participante só aposta no próprio time;
//   - quem já apostou nesta janela só pode empilhar no mesmo lado;
//   - leverage 1 não deixa o saldo negativo; leverage > 1 respeita -maxDebt.
//
// Retorna a aposta inserida e o novo saldo do apostador.
func PlaceBet(guildID, bettorID, team string, amount, leverage, maxDebt int, now time.Time) (*Bet, int, error) {
	effectiveStake := amount * leverage

	tx, err := DB.Begin()
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	// Revalidar a janela contra a linha persistida (write-intent lock)
	var snapshot string
	var betLockUntil, shuffleTS time.Time
	query := prepareQuery("SELECT snapshot, bet_lock_until, shuffle_ts FROM pending_matches WHERE guild_id = ?") + forUpdate()
	err = tx.QueryRow(query, guildID).Scan(&snapshot, &betLockUntil, &shuffleTS)
	if err == sql.ErrNoRows {
		return nil, 0, ErrNoPendingMatch
	}
	if err != nil {
		return nil, 0, err
	}
	if !now.Before(betLockUntil) {
		return nil, 0, ErrBettingClosed
	}

	// Janela cujas apostas já foram liquidadas não aceita stake novo,
	// mesmo que o snapshot ainda não tenha sido removido
	var settled int
	settledQuery := prepareQuery("SELECT COUNT(*) FROM bets WHERE guild_id = ? AND shuffle_ts = ? AND match_id IS NOT NULL")
	if err := tx.QueryRow(settledQuery, guildID, shuffleTS).Scan(&settled); err != nil {
		return nil, 0, err
	}
	if settled > 0 {
		return nil, 0, ErrBettingClosed
	}

	// Participante só pode apostar no próprio lado
	pm, err := decodePendingMatch(snapshot)
	if err != nil {
		return nil, 0, err
	}
	if side := pm.Side(bettorID); side != "" && side != team {
		return nil, 0, ErrSideSwitch
	}

	// Apostas empilhadas precisam ficar no mesmo lado da janela
	var existingTeam string
	sideQuery := prepareQuery(`SELECT team FROM bets
		WHERE guild_id = ? AND bettor_id = ? AND shuffle_ts = ? AND match_id IS NULL LIMIT 1`)
	err = tx.QueryRow(sideQuery, guildID, bettorID, shuffleTS).Scan(&existingTeam)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, err
	}
	if err == nil && existingTeam != team {
		return nil, 0, ErrSideSwitch
	}

	balance, err := getBalanceForUpdateTx(tx, bettorID)
	if err != nil {
		return nil, 0, err
	}
	if leverage == 1 && balance < effectiveStake {
		return nil, 0, ErrInsufficientFunds
	}
	if balance-effectiveStake < -maxDebt {
		return nil, 0, ErrDebtLimitExceeded
	}

	if err := addCoinsTx(tx, bettorID, -effectiveStake); err != nil {
		return nil, 0, err
	}

	insertQuery := prepareQuery(`INSERT INTO bets (guild_id, bettor_id, team, amount, leverage, effective_stake, placed_at, shuffle_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := tx.Exec(insertQuery, guildID, bettorID, team, amount, leverage, effectiveStake, now, shuffleTS); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	bet := &Bet{
		GuildID:        guildID,
		BettorID:       bettorID,
		Team:           team,
		Amount:         amount,
		Leverage:       leverage,
		EffectiveStake: effectiveStake,
		PlacedAt:       now,
		ShuffleTS:      shuffleTS,
	}
	return bet, balance - effectiveStake, nil
}

// GetOpenBets retorna as apostas ainda não liquidadas da janela atual.
// O filtro por shuffle_ts garante que apostas órfãs de uma janela
// substituída nunca vazem para os totais da janela nova.
func GetOpenBets(guildID string, shuffleTS time.Time) ([]Bet, error) {
	query := prepareQuery(`SELECT id, guild_id, bettor_id, team, amount, leverage, effective_stake, placed_at, shuffle_ts
		FROM bets WHERE guild_id = ? AND shuffle_ts = ? AND match_id IS NULL ORDER BY id`)
	rows, err := DB.Query(query, guildID, shuffleTS)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.GuildID, &b.BettorID, &b.Team, &b.Amount,
			&b.Leverage, &b.EffectiveStake, &b.PlacedAt, &b.ShuffleTS); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}

// CountSettledBets conta as apostas da janela que já têm partida atribuída
func CountSettledBets(guildID string, shuffleTS time.Time) (int, error) {
	var n int
	query := prepareQuery("SELECT COUNT(*) FROM bets WHERE guild_id = ? AND shuffle_ts = ? AND match_id IS NOT NULL")
	err := DB.QueryRow(query, guildID, shuffleTS).Scan(&n)
	return n, err
}

// BetPayout é o resultado calculado para uma aposta individual
type BetPayout struct {
	BetID  int64
	Payout int
}

// SettleBets aplica a liquidação da janela em uma única transação:
// atribui match_id e payout a cada aposta aberta e aplica os deltas de
// saldo já pré-agregados por jogador. Tudo ou nada.
func SettleBets(guildID string, shuffleTS time.Time, matchID string, payouts []BetPayout, playerDeltas map[string]int) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	assignQuery := prepareQuery("UPDATE bets SET match_id = ?, payout = ? WHERE id = ? AND match_id IS NULL")
	for _, p := range payouts {
		res, err := tx.Exec(assignQuery, matchID, p.Payout, p.BetID)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			// Outra liquidação chegou primeiro nesta aposta
			return ErrAlreadySettled
		}
	}

	for playerID, delta := range playerDeltas {
		if delta == 0 {
			continue
		}
		if err := addCoinsTx(tx, playerID, delta); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RefundBets devolve o effective stake de cada aposta aberta da janela e
// as remove, em uma única transação (usado no abort)
func RefundBets(guildID string, shuffleTS time.Time) (map[string]int, error) {
	tx, err := DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := prepareQuery(`SELECT bettor_id, effective_stake FROM bets
		WHERE guild_id = ? AND shuffle_ts = ? AND match_id IS NULL`) + forUpdate()
	rows, err := tx.Query(query, guildID, shuffleTS)
	if err != nil {
		return nil, err
	}

	refunds := make(map[string]int)
	for rows.Next() {
		var bettorID string
		var stake int
		if err := rows.Scan(&bettorID, &stake); err != nil {
			rows.Close()
			return nil, err
		}
		refunds[bettorID] += stake
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for bettorID, total := range refunds {
		if err := addCoinsTx(tx, bettorID, total); err != nil {
			return nil, err
		}
	}

	deleteQuery := prepareQuery("DELETE FROM bets WHERE guild_id = ? AND shuffle_ts = ? AND match_id IS NULL")
	if _, err := tx.Exec(deleteQuery, guildID, shuffleTS); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return refunds, nil
}

// GetBetsByMatch retorna as apostas liquidadas de uma partida
func GetBetsByMatch(matchID string) ([]Bet, error) {
	query := prepareQuery(`SELECT id, guild_id, bettor_id, team, amount, leverage, effective_stake, placed_at, shuffle_ts, match_id, payout
		FROM bets WHERE match_id = ? ORDER BY id`)
	rows, err := DB.Query(query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.GuildID, &b.BettorID, &b.Team, &b.Amount,
			&b.Leverage, &b.EffectiveStake, &b.PlacedAt, &b.ShuffleTS, &b.MatchID, &b.Payout); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
