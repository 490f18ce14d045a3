package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresDatabase implementa a interface Database para PostgreSQL usando pgx
type PostgresDatabase struct {
	connString string
	db         *sql.DB
}

// NewPostgresDatabase cria uma nova instância do database PostgreSQL
func NewPostgresDatabase(connString string) *PostgresDatabase {
	return &PostgresDatabase{
		connString: connString,
	}
}

// Open abre a conexão com o banco de dados
func (p *PostgresDatabase) Open() error {
	log.Printf("Connecting to PostgreSQL using pgx driver...")
	log.Printf("Connection string (masked): %s", maskPassword(p.connString))

	db, err := sql.Open("pgx", p.connString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	p.db = db
	return nil
}

// maskPassword oculta a senha na string de conexão para logs
func maskPassword(connString string) string {
	result := connString
	if idx := indexOf(result, "://"); idx >= 0 {
		start := idx + 3
		if atIdx := indexOf(result[start:], "@"); atIdx >= 0 {
			userPass := result[start : start+atIdx]
			if colonIdx := indexOf(userPass, ":"); colonIdx >= 0 {
				user := userPass[:colonIdx]
				result = result[:start] + user + ":****@" + result[start+atIdx+1:]
			}
		}
	}
	return result
}

func indexOf(s, substr string) int {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// Close fecha a conexão com o banco de dados
func (p *PostgresDatabase) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping verifica se a conexão está ativa
func (p *PostgresDatabase) Ping() error {
	if p.db == nil {
		return fmt.Errorf("database not connected")
	}
	return p.db.Ping()
}

// GetDB retorna a instância *sql.DB subjacente
func (p *PostgresDatabase) GetDB() *sql.DB {
	return p.db
}

// Query executa uma query SELECT
func (p *PostgresDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return p.db.Query(query, args...)
}

// QueryRow executa uma query que retorna uma única linha
func (p *PostgresDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return p.db.QueryRow(query, args...)
}

// Exec executa uma query que não retorna linhas
func (p *PostgresDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return p.db.Exec(query, args...)
}

// Begin inicia uma transação
func (p *PostgresDatabase) Begin() (*sql.Tx, error) {
	return p.db.Begin()
}

// Placeholder retorna $N para PostgreSQL (1-indexed)
func (p *PostgresDatabase) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// ForUpdate retorna a cláusula de row lock do PostgreSQL
func (p *PostgresDatabase) ForUpdate() string {
	return " FOR UPDATE"
}

// CreateTables cria as tabelas necessárias para PostgreSQL
func (p *PostgresDatabase) CreateTables() error {
	// Verificar se deve pular criação de tabelas
	if os.Getenv("DB_SKIP_TABLE_CREATION") == "true" {
		log.Println("Skipping table creation (DB_SKIP_TABLE_CREATION=true)")
		return nil
	}

	log.Println("Creating PostgreSQL tables if not exists...")

	createPlayersSQL := `CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		balance INTEGER DEFAULT 0,
		lowest_balance INTEGER DEFAULT 0,
		wins INTEGER DEFAULT 0,
		losses INTEGER DEFAULT 0,
		games_played INTEGER DEFAULT 0,
		rating DOUBLE PRECISION DEFAULT 1500,
		deviation DOUBLE PRECISION DEFAULT 350,
		volatility DOUBLE PRECISION DEFAULT 0.06,
		webhook_url TEXT
	);`
	if _, err := p.db.Exec(createPlayersSQL); err != nil {
		log.Printf("Warning: error creating players table (may already exist): %v", err)
	}

	createPendingSQL := `CREATE TABLE IF NOT EXISTS pending_matches (
		guild_id TEXT PRIMARY KEY,
		snapshot TEXT NOT NULL,
		bet_mode TEXT NOT NULL,
		shuffle_ts TIMESTAMP NOT NULL,
		bet_lock_until TIMESTAMP NOT NULL,
		updated_at TIMESTAMP
	);`
	if _, err := p.db.Exec(createPendingSQL); err != nil {
		log.Printf("Warning: error creating pending_matches table (may already exist): %v", err)
	}

	createBetsSQL := `CREATE TABLE IF NOT EXISTS bets (
		id BIGSERIAL PRIMARY KEY,
		guild_id TEXT NOT NULL,
		bettor_id TEXT NOT NULL,
		team TEXT NOT NULL,
		amount INTEGER NOT NULL,
		leverage INTEGER NOT NULL DEFAULT 1,
		effective_stake INTEGER NOT NULL,
		placed_at TIMESTAMP NOT NULL,
		shuffle_ts TIMESTAMP NOT NULL,
		match_id TEXT,
		payout INTEGER
	);`
	if _, err := p.db.Exec(createBetsSQL); err != nil {
		log.Printf("Warning: error creating bets table (may already exist): %v", err)
	}

	createMatchesSQL := `CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		guild_id TEXT NOT NULL,
		winner TEXT NOT NULL,
		radiant_ids TEXT NOT NULL,
		dire_ids TEXT NOT NULL,
		excluded_ids TEXT,
		shuffled_at TIMESTAMP,
		finalized_at TIMESTAMP NOT NULL
	);`
	if _, err := p.db.Exec(createMatchesSQL); err != nil {
		log.Printf("Warning: error creating matches table (may already exist): %v", err)
	}

	createLoansSQL := `CREATE TABLE IF NOT EXISTS loans (
		player_id TEXT PRIMARY KEY,
		principal INTEGER DEFAULT 0,
		fee INTEGER DEFAULT 0,
		taken_at TIMESTAMP,
		cooldown_until TIMESTAMP,
		total_taken INTEGER DEFAULT 0,
		total_paid INTEGER DEFAULT 0
	);`
	if _, err := p.db.Exec(createLoansSQL); err != nil {
		log.Printf("Warning: error creating loans table (may already exist): %v", err)
	}

	createBankruptciesSQL := `CREATE TABLE IF NOT EXISTS bankruptcies (
		player_id TEXT PRIMARY KEY,
		penalty_games INTEGER DEFAULT 0,
		last_bankruptcy_at TIMESTAMP
	);`
	if _, err := p.db.Exec(createBankruptciesSQL); err != nil {
		log.Printf("Warning: error creating bankruptcies table (may already exist): %v", err)
	}

	createGuildPoolsSQL := `CREATE TABLE IF NOT EXISTS guild_pools (
		guild_id TEXT PRIMARY KEY,
		balance INTEGER DEFAULT 0
	);`
	if _, err := p.db.Exec(createGuildPoolsSQL); err != nil {
		log.Printf("Warning: error creating guild_pools table (may already exist): %v", err)
	}

	createApiTableSQL := `CREATE TABLE IF NOT EXISTS api_keys (
		key TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT,
		created_at TIMESTAMP
	);`
	if _, err := p.db.Exec(createApiTableSQL); err != nil {
		log.Printf("Warning: error creating api_keys table (may already exist): %v", err)
	}

	log.Println("Table creation completed")
	return nil
}
