package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration from environment variables.
type Config struct {
	Port    int
	FeedURL string

	// Google Sheets service-account credentials and target document.
	SheetsClientEmail string
	SheetsPrivateKey  string // PEM; "\n" escapes restored by Load
	SpreadsheetID     string

	// Static reference data.
	StopsPath      string
	RouteNamesPath string
	ShapesPaths    []string // comma-separated in the environment

	Timezone   string
	AdminToken string // bearer token for admin reads; empty leaves them open
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:              envInt("BGBUS_PORT", 8080),
		FeedURL:           envStr("BGBUS_FEED_URL", "https://rt.buslogic.baguette.pirnet.si/beograd/rt.json"),
		SheetsClientEmail: os.Getenv("GOOGLE_SHEETS_CLIENT_EMAIL"),
		SheetsPrivateKey:  restoreNewlines(os.Getenv("GOOGLE_SHEETS_PRIVATE_KEY")),
		SpreadsheetID:     os.Getenv("GOOGLE_SPREADSHEET_ID"),
		StopsPath:         envStr("BGBUS_STOPS_PATH", "./data/stations.json"),
		RouteNamesPath:    envStr("BGBUS_ROUTE_NAMES_PATH", "./data/route-mapping.json"),
		ShapesPaths:       envList("BGBUS_SHAPES_PATHS", "./data/shapes.txt,./data/shapes_gradske.txt"),
		Timezone:          envStr("BGBUS_TIMEZONE", "Europe/Belgrade"),
		AdminToken:        os.Getenv("BGBUS_ADMIN_TOKEN"),
	}
}

// HasSheetsCredentials reports whether a Google service account is configured.
func (c *Config) HasSheetsCredentials() bool {
	return c.SheetsClientEmail != "" && c.SheetsPrivateKey != "" && c.SpreadsheetID != ""
}

// restoreNewlines undoes the "\n" escaping that deployment environments
// apply to multi-line PEM keys.
func restoreNewlines(pem string) string {
	return strings.ReplaceAll(pem, `\n`, "\n")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := envStr(key, fallback)
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
