package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
)

// minSecretLen is the minimum accepted length of the JWT signing secret.
// Anything shorter gives too little entropy for HS256 and the process
// refuses to start.
const minSecretLen = 32

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env            string   // application environment (e.g. "dev", "prod")
	Port           string   // HTTP port to listen on
	DBDriver       string   // "sqlite" (default) or "mysql"
	SQLiteFile     string   // path to the SQLite database file
	DBUser         string   // mysql username
	DBPass         string   // mysql password (optional)
	DBHost         string   // mysql host address
	DBPort         string   // mysql port number
	DBName         string   // mysql database name
	JWTSecret      string   // secret used to sign JWTs, 32+ chars enforced
	AccessTTLMin   int      // access token time-to-live in minutes
	RefreshTTLDays int      // refresh token time-to-live in days
	BcryptCost     int      // bcrypt cost for password hashing
	CORSOrigins    []string // allowed CORS origins
	SeedEmail      string   // bootstrap admin email, created when users table is empty
	SeedPassword   string   // bootstrap admin password
	SeedName       string   // bootstrap admin display name
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	c := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		DBDriver:       envStr("DB_DRIVER", "sqlite"),
		SQLiteFile:     envStr("SQLITE_FILE", "./data/orbit.db"),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBName:         os.Getenv("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "http://localhost:5173")),
		SeedEmail:      envStr("SEED_ADMIN_EMAIL", "admin@orbit.com"),
		SeedPassword:   envStr("SEED_ADMIN_PASSWORD", "admin123"),
		SeedName:       envStr("SEED_ADMIN_NAME", "Orbit Admin"),
	}
	if len(c.JWTSecret) < minSecretLen {
		log.Fatalf("JWT_SECRET must be at least %d characters", minSecretLen)
	}
	if c.DBDriver == "mysql" {
		// mysql mode needs full connection parameters up front
		c.DBUser = must("DB_USER")
		c.DBHost = must("DB_HOST")
		c.DBPort = must("DB_PORT")
		c.DBName = must("DB_NAME")
	}
	return c
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}
