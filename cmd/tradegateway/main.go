package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/yanun0323/decimal"

	"github.com/JulianZhan/trading-ledger/internal/eventlog"
	"github.com/JulianZhan/trading-ledger/internal/gateway"
	"github.com/JulianZhan/trading-ledger/internal/ledger"
	"github.com/JulianZhan/trading-ledger/pkg/conn"
)

const defaultLogPath = "../data/event_log.bin"

// tradeRequestLine is the newline-delimited JSON shape this CLI reads
// from stdin. The HTTP transport TradeController.java exposes is a named
// non-goal; this is a stand-in driver for gateway.Gateway.Submit.
type tradeRequestLine struct {
	TradeID   string `json:"trade_id"`
	AccountID string `json:"account_id"`
	Symbol    string `json:"symbol"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
	Side      string `json:"side"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("tradegateway: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := conn.New(pgOptionFromEnv())
	if err != nil {
		return err
	}
	defer client.Close()

	store := ledger.NewStore(client)
	if err := store.AutoMigrate(); err != nil {
		return err
	}

	logPath := resolveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}
	writer, err := eventlog.NewWriter(logPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	gw := gateway.New(store, writer)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		req, err := decodeTradeRequest(line)
		if err != nil {
			log.Printf("tradegateway: skip malformed line: %v", err)
			continue
		}

		resp, err := gw.Submit(ctx, req)
		if err != nil {
			if errors.Is(err, gateway.ErrTradeConflict) {
				log.Printf("tradegateway: trade %s conflicts with an existing payload", req.TradeID)
				continue
			}
			log.Printf("tradegateway: submit trade %s, err: %v", req.TradeID, err)
			continue
		}
		log.Printf("tradegateway: trade %s accepted (idempotent=%t)", resp.TradeID, resp.Idempotent)
	}
	return scanner.Err()
}

func decodeTradeRequest(line []byte) (gateway.CreateTradeRequest, error) {
	var l tradeRequestLine
	if err := json.Unmarshal(line, &l); err != nil {
		return gateway.CreateTradeRequest{}, err
	}
	qty, err := decimal.NewFromString(l.Quantity)
	if err != nil {
		return gateway.CreateTradeRequest{}, err
	}
	price, err := decimal.NewFromString(l.Price)
	if err != nil {
		return gateway.CreateTradeRequest{}, err
	}
	return gateway.CreateTradeRequest{
		TradeID:   l.TradeID,
		AccountID: l.AccountID,
		Symbol:    l.Symbol,
		Quantity:  qty,
		Price:     price,
		Side:      ledger.Side(l.Side),
	}, nil
}

func resolveLogPath() string {
	if v := os.Getenv("LOG_PATH"); v != "" {
		return v
	}
	return filepath.FromSlash(defaultLogPath)
}

// pgOptionFromEnv builds a pkg/conn.Option from either DATABASE_URL or
// the discrete PGHOST/PGPORT/PGUSER/PGPASSWORD/PGDATABASE variables.
func pgOptionFromEnv() conn.Option {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return conn.Option{ConnString: url}
	}

	port, _ := strconv.Atoi(os.Getenv("PGPORT"))
	return conn.Option{
		Host:     os.Getenv("PGHOST"),
		Port:     port,
		User:     os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
		Database: os.Getenv("PGDATABASE"),
	}
}
