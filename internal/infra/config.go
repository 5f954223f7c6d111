package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"sol_cycle/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent with swap API requests
	DefaultUserAgent = "sol_cycle/1.0"

	// WrappedSOLMint is the SOL mint used as the quote asset by swap routers
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Solana struct {
		RPCURL            string `yaml:"rpc_url"`
		WSURL             string `yaml:"ws_url"` // empty disables signature subscriptions
		PrivateKey        string `yaml:"private_key"`
		ConfirmTimeoutSec int    `yaml:"confirm_timeout_sec"`
		ConfirmPollMS     int    `yaml:"confirm_poll_ms"`
	} `yaml:"solana"`

	Swap struct {
		BaseURL     string `yaml:"base_url"`
		APIKey      string `yaml:"api_key"`
		TimeoutSec  int    `yaml:"timeout_sec"`
		MaxRetries  int    `yaml:"max_retries"`
		ForceLegacy bool   `yaml:"force_legacy"`
		QuoteAsset  string `yaml:"quote_asset"`
	} `yaml:"swap"`

	Telegram struct {
		Token         string `yaml:"token"`
		AllowedChatID int64  `yaml:"allowed_chat_id"`
	} `yaml:"telegram"`

	// Run holds the startup defaults of the mutable run parameters
	Run struct {
		BuyAmount            decimal.Decimal `yaml:"buy_amount"`
		FeeAmount            decimal.Decimal `yaml:"fee_amount"`
		SlippageBps          int             `yaml:"slippage_bps"`
		TargetAsset          string          `yaml:"target_asset"`
		CycleCount           int             `yaml:"cycle_count"`
		MaxSimultaneousBuys  int             `yaml:"max_simultaneous_buys"`
		MaxSimultaneousSells int             `yaml:"max_simultaneous_sells"`
		InterActionDelaySec  int             `yaml:"inter_action_delay_sec"`
		InterCycleDelaySec   int             `yaml:"inter_cycle_delay_sec"`
		InitialDelaySec      int             `yaml:"initial_delay_sec"`
	} `yaml:"run"`

	Storage struct {
		JournalPath string `yaml:"journal_path"` // empty disables the swap journal
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`

	Debug struct {
		PprofAddr string `yaml:"pprof_addr"`
	} `yaml:"debug"`
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(cfg)

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "sol_cycle"
	cfg.Solana.RPCURL = "https://api.mainnet-beta.solana.com"
	cfg.Solana.ConfirmTimeoutSec = 60
	cfg.Solana.ConfirmPollMS = 500
	cfg.Swap.BaseURL = "https://swap-v2.solanatracker.io"
	cfg.Swap.TimeoutSec = 15
	cfg.Swap.MaxRetries = 3
	cfg.Swap.QuoteAsset = WrappedSOLMint
	cfg.Run.BuyAmount = decimal.RequireFromString("0.0105")
	cfg.Run.FeeAmount = decimal.RequireFromString("0.0005")
	cfg.Run.SlippageBps = 200
	cfg.Run.CycleCount = 3
	cfg.Run.MaxSimultaneousBuys = 1
	cfg.Run.MaxSimultaneousSells = 1
	cfg.Run.InterActionDelaySec = 15
	cfg.Run.InterCycleDelaySec = 30
	cfg.Run.InitialDelaySec = 60
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return cfg
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !hasPrefix(c.Solana.RPCURL, "http://") && !hasPrefix(c.Solana.RPCURL, "https://") {
		return &domain.ConfigError{Field: "solana.rpc_url", Err: fmt.Errorf("invalid RPC URL: %q", c.Solana.RPCURL)}
	}
	if c.Solana.WSURL != "" && !hasPrefix(c.Solana.WSURL, "ws://") && !hasPrefix(c.Solana.WSURL, "wss://") {
		return &domain.ConfigError{Field: "solana.ws_url", Err: fmt.Errorf("invalid WebSocket URL: %q", c.Solana.WSURL)}
	}
	if c.Solana.PrivateKey == "" {
		return &domain.ConfigError{Field: "solana.private_key", Err: errors.New("private key is required (CYCLE_PRIVATE_KEY)")}
	}
	if c.Solana.ConfirmTimeoutSec <= 0 || c.Solana.ConfirmPollMS <= 0 {
		return &domain.ConfigError{Field: "solana.confirm", Err: errors.New("confirm timeout and poll interval must be positive")}
	}

	if !hasPrefix(c.Swap.BaseURL, "http://") && !hasPrefix(c.Swap.BaseURL, "https://") {
		return &domain.ConfigError{Field: "swap.base_url", Err: fmt.Errorf("invalid swap URL: %q", c.Swap.BaseURL)}
	}
	if c.Swap.MaxRetries < 1 {
		return &domain.ConfigError{Field: "swap.max_retries", Err: errors.New("must be at least 1")}
	}

	if c.Telegram.Token == "" {
		return &domain.ConfigError{Field: "telegram.token", Err: errors.New("bot token is required (CYCLE_TELEGRAM_TOKEN)")}
	}

	return c.RunConfig().Validate()
}

// RunConfig converts the startup defaults into a domain.RunConfig.
func (c *Config) RunConfig() domain.RunConfig {
	return domain.RunConfig{
		BuyAmount:            c.Run.BuyAmount,
		FeeAmount:            c.Run.FeeAmount,
		SlippageBps:          c.Run.SlippageBps,
		QuoteAsset:           c.Swap.QuoteAsset,
		TargetAsset:          c.Run.TargetAsset,
		CycleCount:           c.Run.CycleCount,
		MaxSimultaneousBuys:  c.Run.MaxSimultaneousBuys,
		MaxSimultaneousSells: c.Run.MaxSimultaneousSells,
		InterActionDelay:     time.Duration(c.Run.InterActionDelaySec) * time.Second,
		InterCycleDelay:      time.Duration(c.Run.InterCycleDelaySec) * time.Second,
		InitialDelay:         time.Duration(c.Run.InitialDelaySec) * time.Second,
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("CYCLE_PRIVATE_KEY"); key != "" {
		cfg.Solana.PrivateKey = key
	}
	if url := os.Getenv("CYCLE_RPC_URL"); url != "" {
		cfg.Solana.RPCURL = url
	}
	if url := os.Getenv("CYCLE_WS_URL"); url != "" {
		cfg.Solana.WSURL = url
	}
	if token := os.Getenv("CYCLE_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if chat := os.Getenv("CYCLE_TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			cfg.Telegram.AllowedChatID = id
		}
	}
	if key := os.Getenv("CYCLE_SWAP_API_KEY"); key != "" {
		cfg.Swap.APIKey = key
	}
	if token := os.Getenv("CYCLE_TARGET_ASSET"); token != "" {
		cfg.Run.TargetAsset = token
	}
}
