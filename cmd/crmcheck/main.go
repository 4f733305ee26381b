package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/xavierca1/leadboard/internal/config"
	"github.com/xavierca1/leadboard/internal/infra/integration/bitrix"
	"github.com/xavierca1/leadboard/internal/usecase"
)

// crmcheck é um teste rápido do hook do CRM: lista os operadores e imprime
// os totais de hoje por etapa sem subir o servidor.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env not found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := bitrix.NewClient(cfg.BitrixWebhook,
		bitrix.WithTimeout(cfg.BitrixTimeout),
		bitrix.WithRetries(cfg.BitrixMaxRetries, cfg.BitrixRetryBase),
		bitrix.WithLocation(cfg.Timezone),
	)

	fmt.Println("🔄 Checking CRM hook...")
	if err := client.Ping(ctx); err != nil {
		log.Fatalf("❌ hook unreachable: %v", err)
	}

	users, err := client.Users(ctx)
	if err != nil {
		log.Printf("⚠️  user list incomplete: %v", err)
	}
	fmt.Printf("👥 Operators: %d\n\n", len(users))

	dir := usecase.NewDirectory(client, time.Minute, nil)
	reports := usecase.NewReports(client, dir, usecase.ReportsConfig{
		Stages:   cfg.Stages,
		Location: cfg.Timezone,
		BoardTTL: time.Minute,
	})
	board, err := reports.Board(ctx)
	if err != nil {
		log.Fatalf("❌ building board: %v", err)
	}

	fmt.Printf("📋 Today (%s), generated %s\n", cfg.Timezone, board.GeneratedAt.Format(time.DateTime))
	if board.Partial {
		fmt.Println("   ⚠️  partial: some stages failed to load")
	}
	for _, s := range board.Stages {
		fmt.Printf("   %-24s %5d  (unassigned %d)\n", s.Label, s.Total, s.Unassigned)
		for i, op := range s.Operators {
			if i == 3 {
				break
			}
			fmt.Printf("      %-30s %d\n", op.Name, op.Count)
		}
	}
}
