package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDatabase implementa a interface Database para SQLite
type SQLiteDatabase struct {
	connString string
	db         *sql.DB
}

// NewSQLiteDatabase cria uma nova instância do database SQLite
func NewSQLiteDatabase(connString string) *SQLiteDatabase {
	return &SQLiteDatabase{
		connString: connString,
	}
}

// Open abre a conexão com o banco de dados
func (s *SQLiteDatabase) Open() error {
	db, err := sql.Open("sqlite3", s.connString)
	if err != nil {
		return err
	}
	// Escritas no SQLite são serializadas; uma única conexão evita
	// SQLITE_BUSY entre transações concorrentes
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

// Close fecha a conexão com o banco de dados
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifica se a conexão está ativa
func (s *SQLiteDatabase) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database not connected")
	}
	return s.db.Ping()
}

// GetDB retorna a instância *sql.DB subjacente
func (s *SQLiteDatabase) GetDB() *sql.DB {
	return s.db
}

// Query executa uma query SELECT
func (s *SQLiteDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

// QueryRow executa uma query que retorna uma única linha
func (s *SQLiteDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return s.db.QueryRow(query, args...)
}

// Exec executa uma query que não retorna linhas
func (s *SQLiteDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.db.Exec(query, args...)
}

// Begin inicia uma transação
func (s *SQLiteDatabase) Begin() (*sql.Tx, error) {
	return s.db.Begin()
}

// Placeholder retorna ? para SQLite (não usa índice)
func (s *SQLiteDatabase) Placeholder(index int) string {
	return "?"
}

// ForUpdate retorna vazio: transações de escrita no SQLite já travam o banco inteiro
func (s *SQLiteDatabase) ForUpdate() string {
	return ""
}

// CreateTables cria as tabelas necessárias para SQLite
func (s *SQLiteDatabase) CreateTables() error {
	createPlayersSQL := `CREATE TABLE IF NOT EXISTS players (
		"id" TEXT NOT NULL PRIMARY KEY,
		"balance" INTEGER DEFAULT 0,
		"lowest_balance" INTEGER DEFAULT 0,
		"wins" INTEGER DEFAULT 0,
		"losses" INTEGER DEFAULT 0,
		"games_played" INTEGER DEFAULT 0,
		"rating" REAL DEFAULT 1500,
		"deviation" REAL DEFAULT 350,
		"volatility" REAL DEFAULT 0.06,
		"webhook_url" TEXT
	);`
	if _, err := s.db.Exec(createPlayersSQL); err != nil {
		return err
	}

	createPendingSQL := `CREATE TABLE IF NOT EXISTS pending_matches (
		"guild_id" TEXT NOT NULL PRIMARY KEY,
		"snapshot" TEXT NOT NULL,
		"bet_mode" TEXT NOT NULL,
		"shuffle_ts" DATETIME NOT NULL,
		"bet_lock_until" DATETIME NOT NULL,
		"updated_at" DATETIME
	);`
	if _, err := s.db.Exec(createPendingSQL); err != nil {
		return err
	}

	createBetsSQL := `CREATE TABLE IF NOT EXISTS bets (
		"id" INTEGER PRIMARY KEY AUTOINCREMENT,
		"guild_id" TEXT NOT NULL,
		"bettor_id" TEXT NOT NULL,
		"team" TEXT NOT NULL,
		"amount" INTEGER NOT NULL,
		"leverage" INTEGER NOT NULL DEFAULT 1,
		"effective_stake" INTEGER NOT NULL,
		"placed_at" DATETIME NOT NULL,
		"shuffle_ts" DATETIME NOT NULL,
		"match_id" TEXT,
		"payout" INTEGER
	);`
	if _, err := s.db.Exec(createBetsSQL); err != nil {
		return err
	}

	createMatchesSQL := `CREATE TABLE IF NOT EXISTS matches (
		"id" TEXT NOT NULL PRIMARY KEY,
		"guild_id" TEXT NOT NULL,
		"winner" TEXT NOT NULL,
		"radiant_ids" TEXT NOT NULL,
		"dire_ids" TEXT NOT NULL,
		"excluded_ids" TEXT,
		"shuffled_at" DATETIME,
		"finalized_at" DATETIME NOT NULL
	);`
	if _, err := s.db.Exec(createMatchesSQL); err != nil {
		return err
	}

	createLoansSQL := `CREATE TABLE IF NOT EXISTS loans (
		"player_id" TEXT NOT NULL PRIMARY KEY,
		"principal" INTEGER DEFAULT 0,
		"fee" INTEGER DEFAULT 0,
		"taken_at" DATETIME,
		"cooldown_until" DATETIME,
		"total_taken" INTEGER DEFAULT 0,
		"total_paid" INTEGER DEFAULT 0
	);`
	if _, err := s.db.Exec(createLoansSQL); err != nil {
		return err
	}

	createBankruptciesSQL := `CREATE TABLE IF NOT EXISTS bankruptcies (
		"player_id" TEXT NOT NULL PRIMARY KEY,
		"penalty_games" INTEGER DEFAULT 0,
		"last_bankruptcy_at" DATETIME
	);`
	if _, err := s.db.Exec(createBankruptciesSQL); err != nil {
		return err
	}

	createGuildPoolsSQL := `CREATE TABLE IF NOT EXISTS guild_pools (
		"guild_id" TEXT NOT NULL PRIMARY KEY,
		"balance" INTEGER DEFAULT 0
	);`
	if _, err := s.db.Exec(createGuildPoolsSQL); err != nil {
		return err
	}

	createApiTableSQL := `CREATE TABLE IF NOT EXISTS api_keys (
		"key" TEXT NOT NULL PRIMARY KEY,
		"user_id" TEXT NOT NULL,
		"name" TEXT,
		"created_at" DATETIME
	);`
	if _, err := s.db.Exec(createApiTableSQL); err != nil {
		return err
	}

	return nil
}
