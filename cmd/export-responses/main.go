package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// CLI flags
var (
	dsn    = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	taskID = flag.String("task", "", "Limit export to one task id (default: all tasks)")
	since  = flag.String("since", "", "Only responses created on/after this date (YYYY-MM-DD)")
	out    = flag.String("out", "", "Output file (default: stdout)")
)

// Streams accepted responses as CSV for offline analysis. Read-only; runs
// in a single repeatable-read transaction so the export is a consistent
// snapshot.

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	var sinceTime time.Time
	if *since != "" {
		t, err := time.Parse("2006-01-02", *since)
		if err != nil {
			fatalf("--since must be YYYY-MM-DD: %v", err)
		}
		sinceTime = t
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT r.id, r.task_id, t.title, r.user_id, r.lat, r.lng,
		       r.response::text, r.created_at
		FROM campaigns.user_task_responses r
		JOIN campaigns.tasks t ON t.id = r.task_id
		WHERE ($1 = '' OR r.task_id::text = $1)
		  AND ($2::timestamptz IS NULL OR r.created_at >= $2)
		ORDER BY r.created_at
	`
	var sinceArg interface{}
	if sinceTime.IsZero() {
		sinceArg = nil
	} else {
		sinceArg = sinceTime
	}

	rows, err := tx.QueryContext(ctx, query, *taskID, sinceArg)
	if err != nil {
		fatalf("query: %v", err)
	}
	defer rows.Close()

	dest := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fatalf("create %s: %v", *out, err)
		}
		defer f.Close()
		dest = f
	}

	w := csv.NewWriter(dest)
	if err := w.Write([]string{"id", "task_id", "task_title", "user_id", "lat", "lng", "response", "created_at"}); err != nil {
		fatalf("write header: %v", err)
	}

	count := 0
	for rows.Next() {
		var (
			id, tid, title, userID, response string
			lat, lng                         float64
			createdAt                        time.Time
		)
		if err := rows.Scan(&id, &tid, &title, &userID, &lat, &lng, &response, &createdAt); err != nil {
			fatalf("scan: %v", err)
		}
		record := []string{
			id, tid, title, userID,
			fmt.Sprintf("%.6f", lat),
			fmt.Sprintf("%.6f", lng),
			response,
			createdAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			fatalf("write row: %v", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		fatalf("rows: %v", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fatalf("flush: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Exported %d responses\n", count)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "export-responses: "+format+"\n", args...)
	os.Exit(1)
}
