package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"jopacoin/pkg/config"
)

// Initialize inicializa o banco de dados baseado na configuração
func Initialize() {
	var err error

	switch config.DBType {
	case "postgres":
		log.Println("Initializing PostgreSQL database...")
		DB, err = NewPostgres(config.ConnString)
	case "sqlite":
		fallthrough
	default:
		log.Println("Initializing SQLite database...")
		DB, err = NewSQLite(config.ConnString)
	}

	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := DB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Printf("Database initialized successfully (type: %s)", config.DBType)
}

// ShouldSkipTableCreation verifica se deve pular a criação de tabelas
func ShouldSkipTableCreation() bool {
	return os.Getenv("DB_SKIP_TABLE_CREATION") == "true"
}

// NewSQLite cria e inicializa um banco SQLite
func NewSQLite(connString string) (Database, error) {
	db := NewSQLiteDatabase(connString)
	if err := db.Open(); err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		return nil, err
	}
	return db, nil
}

// NewPostgres cria e inicializa um banco PostgreSQL
func NewPostgres(connString string) (Database, error) {
	db := NewPostgresDatabase(connString)
	if err := db.Open(); err != nil {
		return nil, err
	}
	if err := db.CreateTables(); err != nil {
		return nil, err
	}
	return db, nil
}

// prepareQuery converte uma query com ? para o formato correto do driver
func prepareQuery(query string) string {
	if config.DBType == "postgres" {
		return convertPlaceholders(query)
	}
	return query
}

// convertPlaceholders converte ? placeholders para $N (PostgreSQL)
func convertPlaceholders(query string) string {
	result := ""
	placeholderIndex := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result += fmt.Sprintf("$%d", placeholderIndex)
			placeholderIndex++
		} else {
			result += string(query[i])
		}
	}
	return result
}

// forUpdate retorna a cláusula de write-intent lock do driver ativo
func forUpdate() string {
	if DB == nil {
		return ""
	}
	return DB.ForUpdate()
}

// EnsurePlayer garante que a linha do jogador existe (saldo inicial 0)
func EnsurePlayer(userID string) error {
	query := prepareQuery(`INSERT INTO players (id, balance, lowest_balance, rating, deviation, volatility)
		VALUES (?, 0, 0, 1500, 350, 0.06) ON CONFLICT(id) DO NOTHING`)
	_, err := DB.Exec(query, userID)
	return err
}

func ensurePlayerTx(tx *sql.Tx, userID string) error {
	query := prepareQuery(`INSERT INTO players (id, balance, lowest_balance, rating, deviation, volatility)
		VALUES (?, 0, 0, 1500, 350, 0.06) ON CONFLICT(id) DO NOTHING`)
	_, err := tx.Exec(query, userID)
	return err
}

// GetBalance retorna o saldo de um usuário, criando a linha se não existir
func GetBalance(userID string) int {
	var balance int
	query := prepareQuery("SELECT balance FROM players WHERE id = ?")

	// Tentar até 3 vezes com pequeno delay
	for i := 0; i < 3; i++ {
		err := DB.QueryRow(query, userID).Scan(&balance)
		if err == nil {
			return balance
		}

		if err == sql.ErrNoRows {
			if insertErr := EnsurePlayer(userID); insertErr != nil {
				log.Printf("[GetBalance] Error inserting player %s: %v (attempt %d)", userID, insertErr, i+1)
				time.Sleep(100 * time.Millisecond)
				continue
			}
			return 0
		}

		log.Printf("[GetBalance] Error getting balance for %s: %v (attempt %d)", userID, err, i+1)
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("[GetBalance] Failed to get balance for %s after 3 attempts, returning 0", userID)
	return 0
}

// getBalanceForUpdateTx lê o saldo dentro de uma transação com write-intent lock
func getBalanceForUpdateTx(tx *sql.Tx, userID string) (int, error) {
	if err := ensurePlayerTx(tx, userID); err != nil {
		return 0, err
	}
	var balance int
	query := prepareQuery("SELECT balance FROM players WHERE id = ?") + forUpdate()
	if err := tx.QueryRow(query, userID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// AddCoins credita (ou debita, com amount negativo) moedas a um jogador.
// O saldo pode ficar negativo por este caminho; o piso de dívida é
// responsabilidade de quem chama.
func AddCoins(userID string, amount int) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := addCoinsTx(tx, userID, amount); err != nil {
		return err
	}

	return tx.Commit()
}

// addCoinsTx aplica o delta de saldo e atualiza lowest_balance dentro de uma transação
func addCoinsTx(tx *sql.Tx, userID string, amount int) error {
	if err := ensurePlayerTx(tx, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(prepareQuery("UPDATE players SET balance = balance + ? WHERE id = ?"), amount, userID); err != nil {
		return err
	}
	_, err := tx.Exec(prepareQuery("UPDATE players SET lowest_balance = balance WHERE id = ? AND balance < lowest_balance"), userID)
	return err
}

// RemoveCoins remove moedas de um usuário; falha se o saldo ficar abaixo de zero
func RemoveCoins(userID string, amount int) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	balance, err := getBalanceForUpdateTx(tx, userID)
	if err != nil {
		return err
	}
	if balance < amount {
		return sql.ErrNoRows
	}
	if err := addCoinsTx(tx, userID, -amount); err != nil {
		return err
	}

	return tx.Commit()
}

// GetPlayer retorna a linha completa do jogador
func GetPlayer(userID string) (*PlayerRow, error) {
	if err := EnsurePlayer(userID); err != nil {
		return nil, err
	}
	p := &PlayerRow{}
	query := prepareQuery(`SELECT id, balance, lowest_balance, wins, losses, games_played, rating, deviation, volatility
		FROM players WHERE id = ?`)
	err := DB.QueryRow(query, userID).Scan(&p.ID, &p.Balance, &p.LowestBalance,
		&p.Wins, &p.Losses, &p.GamesPlayed, &p.Rating, &p.Deviation, &p.Volatility)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// BotUserID é o ID do bot (deve ser definido no main.go)
var BotUserID string

// GetLeaderboard retorna o ranking de saldos (excluindo o bot)
func GetLeaderboard(limit int) ([]UserBalance, error) {
	var rows *sql.Rows
	var err error

	if BotUserID != "" {
		query := prepareQuery("SELECT id, balance, wins, losses FROM players WHERE id != ? ORDER BY balance DESC")
		rows, err = DB.Query(query, BotUserID)
	} else {
		query := prepareQuery("SELECT id, balance, wins, losses FROM players ORDER BY balance DESC")
		rows, err = DB.Query(query)
	}

	if err != nil {
		log.Printf("[LEADERBOARD ERROR] Query failed: %v", err)
		return nil, err
	}
	defer rows.Close()

	var users []UserBalance
	for rows.Next() {
		var u UserBalance
		if err := rows.Scan(&u.ID, &u.Balance, &u.Wins, &u.Losses); err != nil {
			continue
		}
		users = append(users, u)
	}

	if len(users) > limit {
		users = users[:limit]
	}

	return users, nil
}

// RecordResultCounters incrementa os contadores de vitória/derrota e partidas jogadas
func RecordResultCounters(tx *sql.Tx, winners, losers []string) error {
	winQuery := prepareQuery("UPDATE players SET wins = wins + 1, games_played = games_played + 1 WHERE id = ?")
	for _, id := range winners {
		if err := ensurePlayerTx(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(winQuery, id); err != nil {
			return err
		}
	}
	lossQuery := prepareQuery("UPDATE players SET losses = losses + 1, games_played = games_played + 1 WHERE id = ?")
	for _, id := range losers {
		if err := ensurePlayerTx(tx, id); err != nil {
			return err
		}
		if _, err := tx.Exec(lossQuery, id); err != nil {
			return err
		}
	}
	return nil
}

// AddToGuildPool credita moedas no pool compartilhado da guild
func AddToGuildPool(guildID string, amount int) error {
	query := prepareQuery(`INSERT INTO guild_pools (guild_id, balance) VALUES (?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET balance = guild_pools.balance + excluded.balance`)
	_, err := DB.Exec(query, guildID, amount)
	return err
}

func addToGuildPoolTx(tx *sql.Tx, guildID string, amount int) error {
	query := prepareQuery(`INSERT INTO guild_pools (guild_id, balance) VALUES (?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET balance = guild_pools.balance + excluded.balance`)
	_, err := tx.Exec(query, guildID, amount)
	return err
}

// GetGuildPool retorna o saldo do pool compartilhado da guild
func GetGuildPool(guildID string) int {
	var balance int
	query := prepareQuery("SELECT balance FROM guild_pools WHERE guild_id = ?")
	err := DB.QueryRow(query, guildID).Scan(&balance)
	if err != nil {
		return 0
	}
	return balance
}
