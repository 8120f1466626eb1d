package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"ms-calendar/internal/config"
	"ms-calendar/internal/database/migrations"
	"ms-calendar/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [up | down | to <version> | version]")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	log := logger.NewLoggerTo(os.Stdout)
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.Database.PostgresDSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	sqldb, err := sql.Open("postgres", cfg.Database.PostgresDSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}

	runner := migrations.NewRunner(sqldb, log)
	defer runner.Close()

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	switch cmd {
	case "up":
		err = runner.MigrateUp()
	case "down":
		err = runner.MigrateDown()
	case "to":
		if flag.NArg() < 2 {
			usage()
			os.Exit(2)
		}
		var v uint64
		v, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err == nil {
			err = runner.MigrateTo(uint(v))
		}
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version %d (dirty=%t)\n", version, dirty)
		}
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		runner.Close()
		log.Fatal("MIGRATE", err.Error())
	}
}
