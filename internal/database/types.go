package database

import (
	"database/sql"
	"time"
)

// Database define a interface para operações de banco de dados
type Database interface {
	// Connection
	Open() error
	Close() error
	Ping() error
	GetDB() *sql.DB

	// Query Builders - retornam queries formatadas para o driver específico
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Exec(query string, args ...interface{}) (sql.Result, error)
	Begin() (*sql.Tx, error)

	// Placeholder retorna o placeholder correto para o driver (? para SQLite, $N para PostgreSQL)
	Placeholder(index int) string

	// ForUpdate retorna a cláusula de lock de linha (vazio para SQLite,
	// que serializa a transação inteira de escrita)
	ForUpdate() string
}

// PlayerRow representa a conta de um jogador na tabela players
type PlayerRow struct {
	ID            string
	Balance       int
	LowestBalance int
	Wins          int
	Losses        int
	GamesPlayed   int
	Rating        float64
	Deviation     float64
	Volatility    float64
}

// UserBalance representa uma entrada do leaderboard
type UserBalance struct {
	ID      string
	Balance int
	Wins    int
	Losses  int
}

// Bet representa uma aposta persistida
type Bet struct {
	ID             int64
	GuildID        string
	BettorID       string
	Team           string
	Amount         int
	Leverage       int
	EffectiveStake int
	PlacedAt       time.Time
	ShuffleTS      time.Time
	MatchID        sql.NullString
	Payout         sql.NullInt64
}

// PendingMatchRow é o snapshot serializado de uma partida em andamento.
// As colunas bet_lock_until/shuffle_ts são duplicadas fora do JSON para que
// o ledger possa revalidar a janela de apostas sem desserializar o snapshot.
type PendingMatchRow struct {
	GuildID      string
	Snapshot     []byte
	BetMode      string
	ShuffleTS    time.Time
	BetLockUntil time.Time
	UpdatedAt    time.Time
}

// LoanRecord representa o estado de empréstimo de um jogador.
// Principal == 0 significa que não há empréstimo em aberto; os totais e o
// cooldown sobrevivem à quitação.
type LoanRecord struct {
	PlayerID      string
	Principal     int
	Fee           int
	TakenAt       sql.NullTime
	CooldownUntil sql.NullTime
	TotalTaken    int
	TotalPaid     int
}

// BankruptcyRecord representa o estado de falência de um jogador
type BankruptcyRecord struct {
	PlayerID              string
	PenaltyGamesRemaining int
	LastBankruptcyAt      sql.NullTime
}

// MatchRecord representa uma partida finalizada (imutável)
type MatchRecord struct {
	ID          string
	GuildID     string
	Winner      string
	RadiantIDs  []string
	DireIDs     []string
	ExcludedIDs []string
	ShuffledAt  time.Time
	FinalizedAt time.Time
}

// APIKeyStruct representa uma chave de API
type APIKeyStruct struct {
	Key       string
	Name      string
	CreatedAt time.Time
}

// DB é a instância global do database
var DB Database
