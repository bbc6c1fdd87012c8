package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Gateway holds the Nado gateway endpoints and signing parameters.
type Gateway struct {
	// V1URL serves engine queries and signed executes.
	V1URL string
	// V2URL serves the public asset catalog.
	V2URL string
	// WSURL is the streaming endpoint (used by diagnostics only).
	WSURL string
	// ChainID and VerifyingContract pin the EIP-712 signing domain.
	ChainID           int64
	VerifyingContract string
	HTTPTimeout       time.Duration
	// ExecutesPerSecond throttles signed executes; 0 disables the limit.
	ExecutesPerSecond float64
	// ResolveMaxTries bounds the startup catalog lookup.
	ResolveMaxTries int
}

// Trading configures the quoting behaviour for a single market.
type Trading struct {
	Symbol   string
	TickerID string
	// OrderSize is the size of each resting order, in base units.
	OrderSize decimal.Decimal
	// TickSize is the venue's price increment for the market.
	TickSize decimal.Decimal
	// InsideMarket places one tick outside the touch; when false, quotes
	// are spread SpreadPct around the mid instead.
	InsideMarket bool
	SpreadPct    decimal.Decimal
	// RefreshInterval is the sleep between quoting cycles.
	RefreshInterval time.Duration
	// OrderTimeout is both the venue-side order expiration and the local
	// age at which a resting order is cancelled.
	OrderTimeout     time.Duration
	MaxOrdersPerSide int
}

// Risk bounds directional exposure in quote-currency terms.
//
// Position value at or below MaxShortValue suppresses new sells; at or
// above MaxLongValue it suppresses new buys. Existing orders and positions
// are never unwound by these limits.
type Risk struct {
	MaxShortValue decimal.Decimal
	MaxLongValue  decimal.Decimal
}

type Config struct {
	// PrivateKey is the hex-encoded secp256k1 key that owns the subaccount.
	PrivateKey     string
	SubaccountName string

	Gateway Gateway
	Trading Trading
	Risk    Risk

	// APIAddr enables the operator status server when non-empty.
	APIAddr string
	// LogFile tees structured logs to a file when non-empty.
	LogFile string
}

func Default() Config {
	return Config{
		PrivateKey:     "",
		SubaccountName: "default",
		Gateway: Gateway{
			V1URL:             "https://gateway.prod.nado.xyz/v1",
			V2URL:             "https://gateway.prod.nado.xyz/v2",
			WSURL:             "wss://gateway.prod.nado.xyz/v1/ws",
			ChainID:           1,
			VerifyingContract: "0x0000000000000000000000000000000000000000",
			HTTPTimeout:       10 * time.Second,
			ExecutesPerSecond: 5,
			ResolveMaxTries:   4,
		},
		Trading: Trading{
			Symbol:           "BTC-PERP",
			TickerID:         "BTC-PERP_USDT0",
			OrderSize:        decimal.RequireFromString("0.0015"),
			TickSize:         decimal.NewFromInt(1),
			InsideMarket:     true,
			SpreadPct:        decimal.RequireFromString("0.0003"),
			RefreshInterval:  5 * time.Second,
			OrderTimeout:     25 * time.Second,
			MaxOrdersPerSide: 3,
		},
		Risk: Risk{
			MaxShortValue: decimal.NewFromInt(-400),
			MaxLongValue:  decimal.NewFromInt(400),
		},
		APIAddr: "",
		LogFile: "",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	setString(&cfg.PrivateKey, "NADO_PRIVATE_KEY")
	setString(&cfg.SubaccountName, "NADO_SUBACCOUNT_NAME")
	setString(&cfg.Gateway.V1URL, "NADO_RPC_URL")
	setString(&cfg.Gateway.V2URL, "NADO_GATEWAY_V2_URL")
	setString(&cfg.Gateway.WSURL, "NADO_WS_URL")
	setInt64(&cfg.Gateway.ChainID, "NADO_CHAIN_ID")
	setString(&cfg.Gateway.VerifyingContract, "NADO_VERIFYING_CONTRACT")
	setSeconds(&cfg.Gateway.HTTPTimeout, "NADO_HTTP_TIMEOUT_S")
	setFloat(&cfg.Gateway.ExecutesPerSecond, "QUOTER_EXECUTES_PER_SECOND")
	setInt(&cfg.Gateway.ResolveMaxTries, "NADO_RESOLVE_MAX_TRIES")

	setString(&cfg.Trading.Symbol, "QUOTER_SYMBOL")
	setString(&cfg.Trading.TickerID, "QUOTER_TICKER_ID")
	setDecimal(&cfg.Trading.OrderSize, "QUOTER_ORDER_SIZE")
	setDecimal(&cfg.Trading.TickSize, "QUOTER_TICK_SIZE")
	setBool(&cfg.Trading.InsideMarket, "QUOTER_INSIDE_MARKET")
	setDecimal(&cfg.Trading.SpreadPct, "QUOTER_SPREAD_PCT")
	setSeconds(&cfg.Trading.RefreshInterval, "QUOTER_REFRESH_INTERVAL_S")
	setSeconds(&cfg.Trading.OrderTimeout, "QUOTER_ORDER_TIMEOUT_S")
	setInt(&cfg.Trading.MaxOrdersPerSide, "QUOTER_MAX_ORDERS_PER_SIDE")

	setDecimal(&cfg.Risk.MaxShortValue, "QUOTER_MAX_SHORT_VALUE")
	setDecimal(&cfg.Risk.MaxLongValue, "QUOTER_MAX_LONG_VALUE")

	setString(&cfg.APIAddr, "QUOTER_API_ADDR")
	setString(&cfg.LogFile, "LOG_FILE")

	return cfg
}

// Validate rejects configurations that must never reach the quoting loop.
func (c Config) Validate() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("NADO_PRIVATE_KEY not set")
	}
	if c.Trading.Symbol == "" || c.Trading.TickerID == "" {
		return fmt.Errorf("symbol and ticker id must be set")
	}
	if !c.Trading.OrderSize.IsPositive() {
		return fmt.Errorf("order size must be positive, got %s", c.Trading.OrderSize)
	}
	if !c.Trading.TickSize.IsPositive() {
		return fmt.Errorf("tick size must be positive, got %s", c.Trading.TickSize)
	}
	if c.Trading.RefreshInterval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.Trading.OrderTimeout <= 0 {
		return fmt.Errorf("order timeout must be positive")
	}
	if c.Trading.MaxOrdersPerSide <= 0 {
		return fmt.Errorf("max orders per side must be positive")
	}
	if !c.Trading.InsideMarket && !c.Trading.SpreadPct.IsPositive() {
		return fmt.Errorf("spread pct must be positive in spread-from-mid mode")
	}
	// Inverted limits would suppress both sides forever; refuse to start.
	if c.Risk.MaxShortValue.GreaterThanOrEqual(c.Risk.MaxLongValue) {
		return fmt.Errorf("risk limits inverted: max short value %s must be below max long value %s",
			c.Risk.MaxShortValue, c.Risk.MaxLongValue)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}

func setDecimal(dst *decimal.Decimal, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			*dst = d
		}
	}
}
