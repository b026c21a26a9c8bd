package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Fanchen-Meng/online-study-room/internal/result"
	"github.com/Fanchen-Meng/online-study-room/internal/server"
	"github.com/Fanchen-Meng/online-study-room/internal/store"
	"github.com/Fanchen-Meng/online-study-room/internal/task"
)

func main() {
	mode := flag.String("mode", "server", "help|server|stats|export")
	driver := flag.String("driver", store.DriverSQLite, "store driver: sqlite|mysql|postgres")
	dsn := flag.String("dsn", "", "store DSN (default: $STORE_DSN, then database.db for sqlite)")
	httpAddr := flag.String("http-addr", ":5000", "http listen address (server mode)")
	format := flag.String("format", "json", "export format: json|csv|pdf")
	out := flag.String("out", "tasks_export.json", "export output path")
	pdfFont := flag.String("pdf-font", "", "UTF-8 TrueType font for pdf export (needed for CJK titles)")
	flag.Parse()

	if *mode == "help" {
		usage()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewDefaultStore(*driver, *dsn)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	switch *mode {
	case "server":
		srv := server.New(st, server.WithPDFFont(*pdfFont))
		if err := srv.ListenAndServe(ctx, *httpAddr); err != nil {
			log.Fatalf("server: %v", err)
		}

	case "stats":
		stats, err := task.NewManager(st).Stats(ctx)
		if err != nil {
			log.Fatalf("stats: %v", err)
		}
		if err := writeStats(os.Stdout, stats); err != nil {
			log.Fatalf("stats: %v", err)
		}

	case "export":
		ex := result.NewExporter(st)
		ex.FontPath = *pdfFont
		b, err := ex.Export(ctx, *format)
		if err != nil {
			log.Fatalf("export: %v", err)
		}
		if err := os.WriteFile(*out, b, 0644); err != nil {
			log.Fatalf("write: %v", err)
		}
		fmt.Printf("Exported -> %s\n", *out)

	default:
		usage()
	}
}

func writeStats(w io.Writer, stats store.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func usage() {
	fmt.Println("Usage examples:")
	fmt.Println("  go run ./cmd --mode server --http-addr :5000")
	fmt.Println("  go run ./cmd --mode server --driver mysql --dsn 'root:pass@tcp(127.0.0.1:3306)/study_room?parseTime=true'")
	fmt.Println("  go run ./cmd --mode stats")
	fmt.Println("  go run ./cmd --mode export --format pdf --out ./tasks.pdf")
}
