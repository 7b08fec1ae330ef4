package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	httpadapter "github.com/ethvault/go-vault-ledger/internal/app/core/adapter/in/http"
	"github.com/ethvault/go-vault-ledger/internal/app/core/adapter/out/memory"
	mysqladapter "github.com/ethvault/go-vault-ledger/internal/app/core/adapter/out/mysql"
	"github.com/ethvault/go-vault-ledger/internal/app/core/adapter/out/payout"
	"github.com/ethvault/go-vault-ledger/internal/app/core/domain"
	"github.com/ethvault/go-vault-ledger/internal/app/core/notifications"
	"github.com/ethvault/go-vault-ledger/internal/app/core/usecase"
	"github.com/ethvault/go-vault-ledger/pkg/mysql"
	"github.com/ethvault/go-vault-ledger/pkg/wal"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type VaultConfig struct {
	Backend string `yaml:"backend"`
	// Capacity is configured in whole ether and scaled to wei.
	CapEther uint64 `yaml:"cap_ether"`
	// Per-withdrawal ceiling in wei.
	MaxWithdrawalWei string `yaml:"max_withdrawal_wei"`
	Owner            string `yaml:"owner"`
	WALPath          string `yaml:"wal_path"`
}

type Config struct {
	Server     ServerConfig `yaml:"server"`
	Vault      VaultConfig  `yaml:"vault"`
	MySQL      mysql.Config `yaml:"mysql"`
	PayoutURL  string       `yaml:"payout_url"`
	WebhookURL string       `yaml:"webhook_url"`
}

func main() {
	cfg := loadConfig()

	bankCap := domain.EtherToWei(cfg.Vault.CapEther)
	maxWithdrawal, err := domain.ParseWei(cfg.Vault.MaxWithdrawalWei)
	if err != nil {
		log.Fatalf("Invalid max_withdrawal_wei: %v", err)
	}

	var owner common.Address
	if cfg.Vault.Owner != "" {
		if !common.IsHexAddress(cfg.Vault.Owner) {
			log.Fatalf("Invalid owner address: %q", cfg.Vault.Owner)
		}
		owner = common.HexToAddress(cfg.Vault.Owner)
	}

	var notifier usecase.Notifier = notifications.LogNotifier{}
	if cfg.WebhookURL != "" {
		notifier = notifications.NewWebhookNotifier(cfg.WebhookURL)
	}

	var transferer usecase.Transferer = payout.NopTransferer{}
	if cfg.PayoutURL != "" {
		transferer = payout.NewWebhookTransferer(cfg.PayoutURL)
	}

	var vault usecase.Vault
	switch cfg.Vault.Backend {
	case BackendMemory:
		journal, err := wal.NewWAL(cfg.Vault.WALPath)
		if err != nil {
			log.Fatalf("Failed to open WAL: %v", err)
		}
		defer journal.Close()

		vault, err = memory.NewMutexVault(bankCap, maxWithdrawal, journal, transferer, notifier)
		if err != nil {
			log.Fatalf("Failed to init memory vault: %v", err)
		}
		slog.Info("memory vault ready", "wal", cfg.Vault.WALPath)

	case BackendMySQL:
		dbClient, err := mysql.NewClient(cfg.MySQL)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer dbClient.Close()

		mv := mysqladapter.NewMySQLVault(dbClient, bankCap, maxWithdrawal, transferer, notifier)
		if err := mv.Migrate(); err != nil {
			log.Fatalf("Failed to migrate vault schema: %v", err)
		}
		vault = mv
		slog.Info("mysql vault ready", "host", cfg.MySQL.Host, "db", cfg.MySQL.DBName)

	default:
		log.Fatalf("Invalid vault backend: %q", cfg.Vault.Backend)
	}

	bank := usecase.NewBankUseCase(vault, owner)

	app := fiber.New(fiber.Config{
		AppName:               "vaultd",
		DisableStartupMessage: true,
	})
	app.Use(requestid.New())
	app.Use(cors.New())
	httpadapter.NewServer(bank).Register(app)

	go func() {
		slog.Info("vaultd listening",
			"addr", cfg.Server.Listen,
			"cap_wei", bankCap.String(),
			"max_withdrawal_wei", maxWithdrawal.String())
		if err := app.Listen(cfg.Server.Listen); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server exited")
}

func loadConfig() Config {
	// .env is optional; real deployments rely on the config file plus
	// environment overrides for secrets.
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on system env variables")
	}

	path := getEnv("VAULTD_CONFIG", "config/config.yaml")
	cfgData, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("Failed to parse config: %v", err)
	}

	// Fill defaults the file omitted.
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Vault.Backend == "" {
		cfg.Vault.Backend = BackendMemory
	}
	if cfg.Vault.WALPath == "" {
		cfg.Vault.WALPath = "wal.log"
	}
	if cfg.Vault.CapEther == 0 {
		cfg.Vault.CapEther = 100
	}
	if cfg.Vault.MaxWithdrawalWei == "" {
		// Half an ether.
		cfg.Vault.MaxWithdrawalWei = "500000000000000000"
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 100
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = 30 * time.Minute
	}
	if pw := os.Getenv("MYSQL_PASSWORD"); pw != "" {
		cfg.MySQL.Password = pw
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
