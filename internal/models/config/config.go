package config

// Config основной конфиг
type Config struct {
	Environment string
	HTTPPort    string
	// Storage postgres или memory (для локальной разработки)
	Storage  string
	Bot      BotConfig
	Database DatabaseConfig
	Payment  PaymentConfig
}

type BotConfig struct {
	Token    string
	Debug    bool
	AdminIDs []int64 // ID администраторов для уведомлений и команд
}

// IsProduction окружение продакшена
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
