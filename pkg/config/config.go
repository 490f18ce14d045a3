package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
)

type EconomyConfig struct {
	HouseMultiplier         float64 `json:"house_multiplier"`
	LeverageTiers           []int   `json:"leverage_tiers"`
	MaxDebt                 int     `json:"max_debt"`
	MinQuorum               int     `json:"min_quorum"`
	BetWindowMinutes        int     `json:"bet_window_minutes"`
	WinBonus                int     `json:"win_bonus"`
	ParticipationBonus      int     `json:"participation_bonus"`
	ConsolationBonus        int     `json:"consolation_bonus"`
	MaxLoanAmount           int     `json:"max_loan_amount"`
	LoanFeeRate             float64 `json:"loan_fee_rate"`
	LoanCooldownHours       int     `json:"loan_cooldown_hours"`
	BankruptcyPenaltyGames  int     `json:"bankruptcy_penalty_games"`
	BankruptcyBonusFactor   float64 `json:"bankruptcy_bonus_factor"`
	BankruptcyCooldownHours int     `json:"bankruptcy_cooldown_hours"`
}

type DatabaseConfig struct {
	Type string `json:"type"` // "sqlite" ou "postgres"
}

type GeneralConfig struct {
	BotName         string         `json:"bot_name"`
	CurrencyName    string         `json:"currency_name"`
	CurrencySymbol  string         `json:"currency_symbol"`
	DefaultBetMode  string         `json:"default_bet_mode"` // "house" ou "pool"
	EnableAPI       bool           `json:"enable_api"`
	ApiPort         string         `json:"api_port"`
	AllowedChannels []string       `json:"allowed_channels"`
	Database        DatabaseConfig `json:"database"`
}

var (
	Economy    EconomyConfig
	Bot        GeneralConfig
	DBType     string
	ConnString string
)

func Load() {
	loadJSON("economy.json", &Economy)
	loadJSON("config.json", &Bot)

	ApplyEconomyDefaults()

	// Configurar database defaults
	setupDatabaseConfig()
}

// ApplyEconomyDefaults preenche valores padrão para campos ausentes no economy.json
func ApplyEconomyDefaults() {
	if Economy.HouseMultiplier <= 0 {
		Economy.HouseMultiplier = 1.0
	}
	if len(Economy.LeverageTiers) == 0 {
		Economy.LeverageTiers = []int{2, 3, 5}
	}
	if Economy.MaxDebt <= 0 {
		Economy.MaxDebt = 500
	}
	if Economy.MinQuorum <= 0 {
		Economy.MinQuorum = 3
	}
	if Economy.BetWindowMinutes <= 0 {
		Economy.BetWindowMinutes = 5
	}
	if Economy.WinBonus <= 0 {
		Economy.WinBonus = 10
	}
	if Economy.ParticipationBonus <= 0 {
		Economy.ParticipationBonus = 1
	}
	if Economy.ConsolationBonus <= 0 {
		Economy.ConsolationBonus = 2
	}
	if Economy.MaxLoanAmount <= 0 {
		Economy.MaxLoanAmount = 100
	}
	if Economy.LoanFeeRate <= 0 {
		Economy.LoanFeeRate = 0.20
	}
	if Economy.LoanCooldownHours <= 0 {
		Economy.LoanCooldownHours = 24
	}
	if Economy.BankruptcyPenaltyGames <= 0 {
		Economy.BankruptcyPenaltyGames = 5
	}
	if Economy.BankruptcyBonusFactor <= 0 {
		Economy.BankruptcyBonusFactor = 0.5
	}
	if Economy.BankruptcyCooldownHours <= 0 {
		Economy.BankruptcyCooldownHours = 72
	}
	if Bot.DefaultBetMode == "" {
		Bot.DefaultBetMode = "pool"
	}
}

// IsLeverageAllowed verifica se o multiplicador de alavancagem é permitido
// (1 sempre é, os demais vêm dos tiers configurados)
func (e *EconomyConfig) IsLeverageAllowed(leverage int) bool {
	if leverage == 1 {
		return true
	}
	for _, tier := range e.LeverageTiers {
		if tier == leverage {
			return true
		}
	}
	return false
}

func setupDatabaseConfig() {
	// DB_TYPE do .env sobrescreve o config.json
	DBType = os.Getenv("DB_TYPE")
	if DBType == "" {
		DBType = Bot.Database.Type
	}
	if DBType == "" {
		DBType = "sqlite"
	}

	switch DBType {
	case "postgres":
		ConnString = buildPostgresConnectionString()
	case "sqlite":
		fallthrough
	default:
		// Caminho do SQLite vem do .env ou usa default
		ConnString = os.Getenv("SQLITE_PATH")
		if ConnString == "" {
			ConnString = "./jopacoin.db"
		}
		DBType = "sqlite"
	}
}

func buildPostgresConnectionString() string {
	// Usar a DATABASE_URL completa se disponível (funciona com pgx)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		log.Println("Using DATABASE_URL from environment")
		return dbURL
	}

	// Caso contrário, construir a string de conexão a partir das variáveis individuais
	host := os.Getenv("DB_HOST")
	if host == "" {
		log.Fatal("DB_HOST is required for PostgreSQL. Set it in .env file or use DATABASE_URL")
	}

	portStr := os.Getenv("DB_PORT")
	port := 5432
	if portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	user := os.Getenv("DB_USER")
	if user == "" {
		log.Fatal("DB_USER is required for PostgreSQL. Set it in .env file")
	}

	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		log.Fatal("DB_PASSWORD is required for PostgreSQL. Set it in .env file")
	}

	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "postgres"
	}

	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "require"
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func loadJSON(filename string, target interface{}) {
	file, err := os.ReadFile(filename)
	if err != nil {
		log.Fatalf("Error reading %s: %v", filename, err)
	}

	err = json.Unmarshal(file, target)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", filename, err)
	}
}

// IsChannelAllowed checks if a channel ID is in the allowed channels list
// Returns true if the list is empty (all channels allowed) or if the channel is in the list
func (c *GeneralConfig) IsChannelAllowed(channelID string) bool {
	if len(c.AllowedChannels) == 0 {
		return true
	}
	for _, id := range c.AllowedChannels {
		if id == channelID {
			return true
		}
	}
	return false
}
