package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	Indicators  IndicatorConfig  `mapstructure:"indicators"`
	Volatility  VolatilityConfig `mapstructure:"volatility"`
	Scoring     ScoringConfig    `mapstructure:"scoring"`
	Risk        RiskConfig       `mapstructure:"risk"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// TelemetryConfig controls the OpenTelemetry trace pipeline. Without an
// OTLP endpoint spans go to the stdout exporter.
type TelemetryConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type MarketDataConfig struct {
	Symbols      []string           `mapstructure:"symbols"`
	QuoteURL     string             `mapstructure:"quote_url"`
	ScanInterval string             `mapstructure:"scan_interval"`
	Timeout      string             `mapstructure:"timeout"`
	HistoryCap   int                `mapstructure:"history_cap"`
	StrikeSteps  map[string]float64 `mapstructure:"strike_steps"`
	DefaultStep  float64            `mapstructure:"default_strike_step"`
	ExpiryCount  int                `mapstructure:"expiry_count"`
}

// IndicatorConfig holds the lookback windows for the indicator engine.
type IndicatorConfig struct {
	RSIPeriod        int `mapstructure:"rsi_period"`
	MACDFastPeriod   int `mapstructure:"macd_fast_period"`
	MACDSlowPeriod   int `mapstructure:"macd_slow_period"`
	ShortMAPeriod    int `mapstructure:"short_ma_period"`
	LongMAPeriod     int `mapstructure:"long_ma_period"`
	BollingerPeriod  int `mapstructure:"bollinger_period"`
	StochasticPeriod int `mapstructure:"stochastic_period"`
	WilliamsPeriod   int `mapstructure:"williams_period"`
	TrendPeriod      int `mapstructure:"trend_period"`
	MomentumPeriod   int `mapstructure:"momentum_period"`
	VolumeShort      int `mapstructure:"volume_short"`
	VolumeLong       int `mapstructure:"volume_long"`
}

type VolatilityConfig struct {
	MinImpliedVol  float64            `mapstructure:"min_implied_vol"`
	MaxImpliedVol  float64            `mapstructure:"max_implied_vol"`
	SolverFloor    float64            `mapstructure:"solver_floor"`
	SolverCeiling  float64            `mapstructure:"solver_ceiling"`
	RiskFreeRate   float64            `mapstructure:"risk_free_rate"`
	SmileMaxFactor float64            `mapstructure:"smile_max_factor"`
	TypicalVol     map[string]float64 `mapstructure:"typical_vol"`
	DefaultTypical float64            `mapstructure:"default_typical_vol"`
}

// ScoringConfig carries the composite-confidence weights and the direction
// blend. The defaults mirror the tuning the strategy was calibrated with;
// they are deliberately configuration, not constants.
type ScoringConfig struct {
	TechnicalWeight    float64 `mapstructure:"technical_weight"`
	GreeksWeight       float64 `mapstructure:"greeks_weight"`
	VolumeWeight       float64 `mapstructure:"volume_weight"`
	SentimentWeight    float64 `mapstructure:"sentiment_weight"`
	ModelWeight        float64 `mapstructure:"model_weight"`
	DirectionTechnical float64 `mapstructure:"direction_technical"`
	DirectionSentiment float64 `mapstructure:"direction_sentiment"`
	DirectionModel     float64 `mapstructure:"direction_model"`
	DirectionThreshold float64 `mapstructure:"direction_threshold"`

	// Sub-weights inside the technical direction read.
	RSIExtremeWeight float64 `mapstructure:"rsi_extreme_weight"`
	RSILeanWeight    float64 `mapstructure:"rsi_lean_weight"`
	MACDWeight       float64 `mapstructure:"macd_weight"`
	MomentumWeight   float64 `mapstructure:"momentum_weight"`

	MinConfidence      float64 `mapstructure:"min_confidence"`
	MinExpiryDays      int     `mapstructure:"min_expiry_days"`
	MaxExpiryDays      int     `mapstructure:"max_expiry_days"`
}

type RiskConfig struct {
	AccountValue       float64 `mapstructure:"account_value"`
	MaxRiskPct         float64 `mapstructure:"max_risk_pct"`
	MinRiskReward      float64 `mapstructure:"min_risk_reward"`
	MaxDeltaExposure   float64 `mapstructure:"max_delta_exposure"`
	MaxVegaExposure    float64 `mapstructure:"max_vega_exposure"`
	MaxMoneynessDist   float64 `mapstructure:"max_moneyness_dist"`
	MaxImpliedVol      float64 `mapstructure:"max_implied_vol"`
	ThetaShortDays     int     `mapstructure:"theta_short_days"`
	ThetaPremiumFrac   float64 `mapstructure:"theta_premium_frac"`
	SellerBaseProb     float64 `mapstructure:"seller_base_prob"`
	ProbabilityFloor   float64 `mapstructure:"probability_floor"`
	ProbabilityCeiling float64 `mapstructure:"probability_ceiling"`
	ExpectedMoveCap    float64 `mapstructure:"expected_move_cap"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_BOT_TOKEN environment variable: %w", err)
	}
	if err := viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID"); err != nil {
		return nil, fmt.Errorf("failed to bind TELEGRAM_CHAT_ID environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Volatility.MinImpliedVol <= 0 || c.Volatility.MaxImpliedVol <= c.Volatility.MinImpliedVol {
		return fmt.Errorf("volatility bounds must satisfy 0 < min < max, got [%f, %f]",
			c.Volatility.MinImpliedVol, c.Volatility.MaxImpliedVol)
	}
	if c.Risk.AccountValue <= 0 {
		return fmt.Errorf("risk.account_value must be positive, got %f", c.Risk.AccountValue)
	}
	if c.Risk.MaxRiskPct <= 0 || c.Risk.MaxRiskPct > 1 {
		return fmt.Errorf("risk.max_risk_pct must be in (0, 1], got %f", c.Risk.MaxRiskPct)
	}
	if c.Scoring.MinExpiryDays < 0 || c.Scoring.MaxExpiryDays <= c.Scoring.MinExpiryDays {
		return fmt.Errorf("expiry window must satisfy 0 <= min < max, got [%d, %d]",
			c.Scoring.MinExpiryDays, c.Scoring.MaxExpiryDays)
	}
	if _, err := time.ParseDuration(c.MarketData.ScanInterval); err != nil {
		return fmt.Errorf("invalid market_data.scan_interval: %w", err)
	}
	if _, err := time.ParseDuration(c.MarketData.Timeout); err != nil {
		return fmt.Errorf("invalid market_data.timeout: %w", err)
	}
	return nil
}

// ScanIntervalDuration returns the parsed scan interval. Validate has
// already checked the duration string.
func (c *MarketDataConfig) ScanIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.ScanInterval)
	return d
}

// TimeoutDuration returns the parsed market-data timeout.
func (c *MarketDataConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// StrikeStep returns the strike-ladder step for a symbol.
func (c *MarketDataConfig) StrikeStep(symbol string) float64 {
	if step, ok := c.StrikeSteps[symbol]; ok {
		return step
	}
	return c.DefaultStep
}

// TypicalVolFor returns the configured typical volatility for a symbol,
// used when no historical or quote-implied estimate is available.
func (c *VolatilityConfig) TypicalVolFor(symbol string) float64 {
	if v, ok := c.TypicalVol[symbol]; ok {
		return v
	}
	return c.DefaultTypical
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.enabled", false)

	// Telegram
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.chat_id", "")

	// Telemetry
	viper.SetDefault("telemetry.enabled", true)
	viper.SetDefault("telemetry.otlp_endpoint", "")
	viper.SetDefault("telemetry.sample_rate", 0.2)

	// Market data
	viper.SetDefault("market_data.symbols", []string{"NIFTY", "BANKNIFTY", "FINNIFTY", "SENSEX"})
	viper.SetDefault("market_data.quote_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	viper.SetDefault("market_data.scan_interval", "5m")
	viper.SetDefault("market_data.timeout", "15s")
	viper.SetDefault("market_data.history_cap", 200)
	viper.SetDefault("market_data.strike_steps", map[string]float64{
		"NIFTY":     50,
		"FINNIFTY":  50,
		"BANKNIFTY": 100,
		"SENSEX":    100,
	})
	viper.SetDefault("market_data.default_strike_step", 50)
	viper.SetDefault("market_data.expiry_count", 4)

	// Indicator windows
	viper.SetDefault("indicators.rsi_period", 14)
	viper.SetDefault("indicators.macd_fast_period", 12)
	viper.SetDefault("indicators.macd_slow_period", 26)
	viper.SetDefault("indicators.short_ma_period", 9)
	viper.SetDefault("indicators.long_ma_period", 21)
	viper.SetDefault("indicators.bollinger_period", 20)
	viper.SetDefault("indicators.stochastic_period", 14)
	viper.SetDefault("indicators.williams_period", 14)
	viper.SetDefault("indicators.trend_period", 14)
	viper.SetDefault("indicators.momentum_period", 10)
	viper.SetDefault("indicators.volume_short", 5)
	viper.SetDefault("indicators.volume_long", 20)

	// Volatility
	viper.SetDefault("volatility.min_implied_vol", 0.08)
	viper.SetDefault("volatility.max_implied_vol", 0.60)
	viper.SetDefault("volatility.solver_floor", 0.01)
	viper.SetDefault("volatility.solver_ceiling", 5.0)
	viper.SetDefault("volatility.risk_free_rate", 0.065)
	viper.SetDefault("volatility.smile_max_factor", 1.10)
	viper.SetDefault("volatility.typical_vol", map[string]float64{
		"NIFTY":     0.185,
		"SENSEX":    0.162,
		"BANKNIFTY": 0.228,
		"FINNIFTY":  0.201,
	})
	viper.SetDefault("volatility.default_typical_vol", 0.20)

	// Scoring
	viper.SetDefault("scoring.technical_weight", 0.25)
	viper.SetDefault("scoring.greeks_weight", 0.20)
	viper.SetDefault("scoring.volume_weight", 0.15)
	viper.SetDefault("scoring.sentiment_weight", 0.15)
	viper.SetDefault("scoring.model_weight", 0.25)
	viper.SetDefault("scoring.direction_technical", 0.4)
	viper.SetDefault("scoring.direction_sentiment", 0.3)
	viper.SetDefault("scoring.direction_model", 0.3)
	viper.SetDefault("scoring.direction_threshold", 0.1)
	viper.SetDefault("scoring.rsi_extreme_weight", 0.3)
	viper.SetDefault("scoring.rsi_lean_weight", 0.1)
	viper.SetDefault("scoring.macd_weight", 0.2)
	viper.SetDefault("scoring.momentum_weight", 0.2)
	viper.SetDefault("scoring.min_confidence", 75.0)
	viper.SetDefault("scoring.min_expiry_days", 7)
	viper.SetDefault("scoring.max_expiry_days", 45)

	// Risk
	viper.SetDefault("risk.account_value", 1000000.0)
	viper.SetDefault("risk.max_risk_pct", 0.05)
	viper.SetDefault("risk.min_risk_reward", 1.5)
	viper.SetDefault("risk.max_delta_exposure", 0.85)
	viper.SetDefault("risk.max_vega_exposure", 50.0)
	viper.SetDefault("risk.max_moneyness_dist", 0.15)
	viper.SetDefault("risk.max_implied_vol", 0.40)
	viper.SetDefault("risk.theta_short_days", 3)
	viper.SetDefault("risk.theta_premium_frac", 0.15)
	viper.SetDefault("risk.seller_base_prob", 65.0)
	viper.SetDefault("risk.probability_floor", 20.0)
	viper.SetDefault("risk.probability_ceiling", 90.0)
	viper.SetDefault("risk.expected_move_cap", 0.03)
}
