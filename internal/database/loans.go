package database

import (
	"database/sql"
	"time"
)

// GetLoan retorna o estado de empréstimo do jogador (registro zerado se
// nunca pegou empréstimo)
func GetLoan(playerID string) (*LoanRecord, error) {
	rec := &LoanRecord{PlayerID: playerID}
	query := prepareQuery(`SELECT principal, fee, taken_at, cooldown_until, total_taken, total_paid
		FROM loans WHERE player_id = ?`)
	err := DB.QueryRow(query, playerID).Scan(&rec.Principal, &rec.Fee, &rec.TakenAt,
		&rec.CooldownUntil, &rec.TotalTaken, &rec.TotalPaid)
	if err == sql.ErrNoRows {
		return rec, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func getLoanForUpdateTx(tx *sql.Tx, playerID string) (*LoanRecord, error) {
	upsert := prepareQuery(`INSERT INTO loans (player_id, principal, fee, total_taken, total_paid)
		VALUES (?, 0, 0, 0, 0) ON CONFLICT(player_id) DO NOTHING`)
	if _, err := tx.Exec(upsert, playerID); err != nil {
		return nil, err
	}
	rec := &LoanRecord{PlayerID: playerID}
	query := prepareQuery(`SELECT principal, fee, taken_at, cooldown_until, total_taken, total_paid
		FROM loans WHERE player_id = ?`) + forUpdate()
	err := tx.QueryRow(query, playerID).Scan(&rec.Principal, &rec.Fee, &rec.TakenAt,
		&rec.CooldownUntil, &rec.TotalTaken, &rec.TotalPaid)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// TakeLoan credita o principal ao jogador e registra o empréstimo em uma
// única transação. No máximo um empréstimo em aberto por jogador; o
// cooldown começa a contar na tomada.
func TakeLoan(playerID string, amount, fee int, cooldownUntil time.Time, now time.Time) (int, error) {
	tx, err := DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rec, err := getLoanForUpdateTx(tx, playerID)
	if err != nil {
		return 0, err
	}
	if rec.Principal > 0 {
		return 0, ErrLoanOutstanding
	}
	if rec.CooldownUntil.Valid && now.Before(rec.CooldownUntil.Time) {
		return 0, ErrLoanCooldown
	}

	if err := addCoinsTx(tx, playerID, amount); err != nil {
		return 0, err
	}

	update := prepareQuery(`UPDATE loans SET principal = ?, fee = ?, taken_at = ?, cooldown_until = ?,
		total_taken = total_taken + ? WHERE player_id = ?`)
	if _, err := tx.Exec(update, amount, fee, now, cooldownUntil, amount, playerID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return amount + fee, nil
}

// RepayLoan quita voluntariamente o empréstimo em aberto. Exige saldo
// suficiente; a taxa vai para o pool compartilhado da guild.
func RepayLoan(playerID, guildID string) (int, error) {
	return repayLoan(playerID, guildID, false)
}

// ForceRepayLoan quita o empréstimo incondicionalmente (liquidação de
// partida): o débito pode deixar o saldo ainda mais negativo.
func ForceRepayLoan(playerID, guildID string) (int, error) {
	return repayLoan(playerID, guildID, true)
}

func repayLoan(playerID, guildID string, forced bool) (int, error) {
	tx, err := DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rec, err := getLoanForUpdateTx(tx, playerID)
	if err != nil {
		return 0, err
	}
	if rec.Principal == 0 {
		return 0, ErrNoLoan
	}

	owed := rec.Principal + rec.Fee

	if !forced {
		balance, err := getBalanceForUpdateTx(tx, playerID)
		if err != nil {
			return 0, err
		}
		if balance < owed {
			return 0, ErrInsufficientFunds
		}
	}

	if err := addCoinsTx(tx, playerID, -owed); err != nil {
		return 0, err
	}
	if rec.Fee > 0 {
		if err := addToGuildPoolTx(tx, guildID, rec.Fee); err != nil {
			return 0, err
		}
	}

	update := prepareQuery(`UPDATE loans SET principal = 0, fee = 0, total_paid = total_paid + ? WHERE player_id = ?`)
	if _, err := tx.Exec(update, owed, playerID); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return owed, nil
}

// GetBankruptcy retorna o estado de falência do jogador
func GetBankruptcy(playerID string) (*BankruptcyRecord, error) {
	rec := &BankruptcyRecord{PlayerID: playerID}
	query := prepareQuery("SELECT penalty_games, last_bankruptcy_at FROM bankruptcies WHERE player_id = ?")
	err := DB.QueryRow(query, playerID).Scan(&rec.PenaltyGamesRemaining, &rec.LastBankruptcyAt)
	if err == sql.ErrNoRows {
		return rec, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// DeclareBankruptcy zera um saldo negativo em troca da penalidade de
// bônus pelos próximos N jogos. Só vale para quem está devendo e fora do
// cooldown.
func DeclareBankruptcy(playerID string, penaltyGames int, cooldown time.Duration, now time.Time) (int, error) {
	tx, err := DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := getBalanceForUpdateTx(tx, playerID)
	if err != nil {
		return 0, err
	}
	if balance >= 0 {
		return 0, ErrNotInDebt
	}

	var last sql.NullTime
	query := prepareQuery("SELECT last_bankruptcy_at FROM bankruptcies WHERE player_id = ?") + forUpdate()
	err = tx.QueryRow(query, playerID).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	if last.Valid && now.Sub(last.Time) < cooldown {
		return 0, ErrBankruptcyCooldown
	}

	forgiven := -balance
	if err := addCoinsTx(tx, playerID, forgiven); err != nil {
		return 0, err
	}

	upsert := prepareQuery(`INSERT INTO bankruptcies (player_id, penalty_games, last_bankruptcy_at)
		VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			penalty_games = excluded.penalty_games,
			last_bankruptcy_at = excluded.last_bankruptcy_at`)
	if _, err := tx.Exec(upsert, playerID, penaltyGames, now); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return forgiven, nil
}

// DecrementBankruptcyPenalties reduz em um o contador de penalidade de
// cada participante, com piso em zero (uma vez por partida jogada)
func DecrementBankruptcyPenalties(playerIDs []string) error {
	query := prepareQuery("UPDATE bankruptcies SET penalty_games = penalty_games - 1 WHERE player_id = ? AND penalty_games > 0")
	for _, id := range playerIDs {
		if _, err := DB.Exec(query, id); err != nil {
			return err
		}
	}
	return nil
}
