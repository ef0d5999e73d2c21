package config

import (
	"net"
	"os"

	"github.com/go-sql-driver/mysql"
)

const localDSN = "wildfire:wildfire@tcp(localhost:3306)/wildfire?parseTime=true"

// GetDatabaseDSN returns the MySQL connection string. A complete set of
// DB_* parts wins over DATABASE_DSN, which wins over the local default.
func GetDatabaseDSN() string {
	if cfg, ok := mysqlConfigFromEnv(); ok {
		return cfg.FormatDSN()
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return dsn
	}
	return localDSN
}

func mysqlConfigFromEnv() (*mysql.Config, bool) {
	host, port := os.Getenv("DB_HOST"), os.Getenv("DB_PORT")

	cfg := mysql.NewConfig()
	cfg.User = os.Getenv("DB_USER")
	cfg.Passwd = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	if cfg.User == "" || cfg.Passwd == "" || cfg.DBName == "" || host == "" || port == "" {
		return nil, false
	}

	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.ParseTime = true
	return cfg, true
}
