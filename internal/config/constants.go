package config

import "time"

// Application constants
const (
	AppName    = "salespulse"
	AppVersion = "1.0.0"

	// Rate Limiting
	DefaultRateLimitRPS = 20
	DefaultBurstSize    = 40

	DefaultRunTimeout = 10 * time.Minute

	WebSocketPingPeriod      = 30 * time.Second
	WebSocketPongWait        = 60 * time.Second
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// File Paths
	DefaultDataDir          = "data"
	DefaultLogsDir          = "logs"
	DefaultReportsDir       = "reports"
	DefaultTransactionsFile = "sales.csv"
	DefaultProductsFile     = "products.csv"
	DefaultCategoriesFile   = "categories.csv"

	DefaultLogLevel = "info"

	// Analysis period. The bundled dataset is dated 2018 and is analysed as
	// February 2024.
	DefaultTargetYear  = 2024
	DefaultTargetMonth = 2
	DefaultSourceYear  = 2018

	DefaultCOGSRatio           = 0.70
	DefaultForecastHorizonDays = 7
	DefaultTopN                = 10

	// API
	APIBasePath       = "/api/v1"
	HealthEndpoint    = "/healthz"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

// DefaultAllowlist is the set of category names kept by the domain filter
var DefaultAllowlist = []string{
	"Confections",
	"Produce",
	"Beverages",
	"Grain",
}

// DefaultDenylist is the set of product names the domain filter removes
var DefaultDenylist = []string{
	"Barramundi",
	"Creme De Banane - Marie",
	"Shrimp - 31/40",
	"Orange - Canned, Mandarin",
	"Cheese - Boursin, Garlic / Herbs",
	"Veal - Osso Bucco",
	"Tomato - Tricolor Cherry",
	"Grenadine",
	"Salmon - Atlantic, Skin On",
	"Coffee - Irish Cream",
	"Crab - Dungeness, Whole",
	"Sole - Dover, Whole, Fresh",
	"Sauce - Demi Glace",
	"Seedlings - Mix, Organic",
	"Vanilla Beans",
	"Bread Crumbs - Japanese Style",
}
