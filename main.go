package main

import (
	"context"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Rufusemmanuel/hangman/internal/ethrpc"
	"github.com/Rufusemmanuel/hangman/internal/game"
	"github.com/Rufusemmanuel/hangman/internal/httpserver"
	"github.com/Rufusemmanuel/hangman/internal/ledger"
	"github.com/Rufusemmanuel/hangman/internal/rewards"
	"github.com/Rufusemmanuel/hangman/internal/session"
	"github.com/Rufusemmanuel/hangman/internal/wallet"
	"github.com/Rufusemmanuel/hangman/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(envStr("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word pools")
	}

	db, err := openDB(envStr("DB_PATH", "./data/app.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	rewardStore, err := rewards.NewStore(context.Background(), db)
	if err != nil {
		log.Fatal().Err(err).Msg("load reward ledger")
	}

	nodeRPC := ethrpc.New(envStr("RPC_URL", "https://mainnet.base.org"))
	walletRPC := ethrpc.New(envStr("WALLET_RPC_URL", envStr("RPC_URL", "https://mainnet.base.org")))

	chainID := uint64(envInt("CHAIN_ID", 8453))
	contract := envStr("CONTRACT_ADDRESS", "0x0000000000000000000000000000000000000000")
	if contract == "0x0000000000000000000000000000000000000000" {
		log.Warn().Msg("CONTRACT_ADDRESS not set; ledger calls will target the zero address")
	}

	ctrl := session.New(session.Config{
		Wallet:      wallet.NewRPC(walletRPC),
		Ledger:      ledger.NewClient(nodeRPC, walletRPC, contract, chainID),
		Rewards:     rewardStore,
		Draw:        func(d game.Difficulty) words.Entry { return words.Random(string(d)) },
		Contract:    contract,
		ChainID:     chainID,
		BuilderCode: envStr("BUILDER_CODE", ""),
		Difficulty:  game.Medium,
	})
	defer ctrl.Close()

	srv := httpserver.New(ctrl, db)
	port := envStr("PORT", "5175")
	log.Info().Str("port", port).Uint64("chain", chainID).Str("contract", contract).Msg("starting hangman server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// envStr returns the value of k or def if unset/empty.
func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt returns the integer value of k or def if unset/unparseable.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
