// Command estatecore is a small operations CLI over the estate record
// engine: it seeds demo data, lists records in display order, applies
// lifecycle actions, and serves Prometheus metrics.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estatecore/internal/core"
	"estatecore/pkg/domain"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("estatecore", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		estate  = fs.String("estate", "demo", "estate id to operate on")
		entity  = fs.String("entity", "owners", "record kind: owners|documents")
		column  = fs.String("sort", "", "sort column (empty keeps insertion order)")
		desc    = fs.Bool("desc", false, "sort descending")
		addr    = fs.String("addr", ":9180", "listen address for serve")
		verbose = fs.Bool("v", false, "debug logging")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: estatecore [flags] <seed|list|lapse|reactivate|decease|delete|serve> [id]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := core.NewSlogLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	store, err := core.OpenStore(nil)
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer closeStore(store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := fs.Arg(0)
	switch cmd {
	case "seed":
		return seed(ctx, store, *estate, stdout, stderr)
	case "list":
		return list(ctx, store, *estate, *entity, *column, *desc, logger, stdout, stderr)
	case "lapse", "reactivate", "decease", "delete":
		if fs.NArg() < 2 {
			fmt.Fprintf(stderr, "%s requires a record id\n", cmd)
			return 2
		}
		return mutate(ctx, store, *estate, *entity, cmd, fs.Arg(1), logger, stdout, stderr)
	case "serve":
		return serve(ctx, store, *estate, *addr, logger, stderr)
	default:
		fs.Usage()
		return 2
	}
}

func closeStore(store domain.Store) {
	if c, ok := store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

func seed(ctx context.Context, store domain.Store, estate string, stdout, stderr io.Writer) int {
	owners := []domain.ProductOwner{
		{EstateID: estate, FirstName: "Margaret", LastName: "Okafor", DateOfBirth: "1954-03-18", Email: "margaret@example.com", Relationship: "spouse", Status: domain.OwnerActive},
		{EstateID: estate, FirstName: "Daniel", LastName: "Okafor", DateOfBirth: "1982-11-02", Email: "daniel@example.com", Relationship: "child", Status: domain.OwnerActive},
		{EstateID: estate, FirstName: "Priya", DateOfBirth: "1990-06-30", Email: "priya@example.com", Relationship: "executor", Status: domain.OwnerLapsed},
	}
	for _, o := range owners {
		created, err := store.CreateOwner(ctx, o)
		if err != nil {
			fmt.Fprintf(stderr, "seed owner: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "owner %s created\n", created.ID)
	}
	docs := []domain.LegalDocument{
		{EstateID: estate, Type: "will", DocumentDate: "2020-01-15", Status: domain.DocumentSigned},
		{EstateID: estate, Type: "power of attorney", DocumentDate: "2018-07-01", Status: domain.DocumentLapsed},
	}
	for _, d := range docs {
		created, err := store.CreateDocument(ctx, d)
		if err != nil {
			fmt.Fprintf(stderr, "seed document: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "document %s created\n", created.ID)
	}
	return 0
}

func sortRequest(column string, desc bool) *core.SortRequest {
	if column == "" {
		return nil
	}
	dir := core.Ascending
	if desc {
		dir = core.Descending
	}
	return &core.SortRequest{Column: column, Direction: dir}
}

func list(ctx context.Context, store domain.Store, estate, entity, column string, desc bool, logger core.Logger, stdout, stderr io.Writer) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	switch entity {
	case "owners":
		session := core.NewOwnerSession(store, core.WithLogger(logger))
		defer session.Close()
		if err := session.Load(ctx, estate); err != nil {
			fmt.Fprintf(stderr, "load: %v\n", err)
			return 1
		}
		ordered, err := session.Ordered(sortRequest(column, desc))
		if err != nil {
			fmt.Fprintf(stderr, "order: %v\n", err)
			return 1
		}
		_ = enc.Encode(ordered)
	case "documents":
		session := core.NewDocumentSession(store, core.WithLogger(logger))
		defer session.Close()
		if err := session.Load(ctx, estate); err != nil {
			fmt.Fprintf(stderr, "load: %v\n", err)
			return 1
		}
		ordered, err := session.Ordered(sortRequest(column, desc))
		if err != nil {
			fmt.Fprintf(stderr, "order: %v\n", err)
			return 1
		}
		_ = enc.Encode(ordered)
	default:
		fmt.Fprintf(stderr, "unknown entity %q\n", entity)
		return 2
	}
	return 0
}

func ownerIntent(cmd string) (core.Intent[domain.ProductOwner], bool) {
	switch cmd {
	case "lapse":
		return core.StatusTransition[domain.ProductOwner](domain.ActionLapse), true
	case "reactivate":
		return core.StatusTransition[domain.ProductOwner](domain.ActionReactivate), true
	case "decease":
		return core.StatusTransition[domain.ProductOwner](domain.ActionMarkDeceased), true
	case "delete":
		return core.Delete[domain.ProductOwner](), true
	}
	return core.Intent[domain.ProductOwner]{}, false
}

func documentIntent(cmd string) (core.Intent[domain.LegalDocument], bool) {
	switch cmd {
	case "lapse":
		return core.StatusTransition[domain.LegalDocument](domain.ActionLapse), true
	case "reactivate":
		return core.StatusTransition[domain.LegalDocument](domain.ActionReactivate), true
	case "delete":
		return core.Delete[domain.LegalDocument](), true
	}
	return core.Intent[domain.LegalDocument]{}, false
}

func mutate(ctx context.Context, store domain.Store, estate, entity, cmd, id string, logger core.Logger, stdout, stderr io.Writer) int {
	switch entity {
	case "owners":
		intent, ok := ownerIntent(cmd)
		if !ok {
			fmt.Fprintf(stderr, "action %q is not defined for owners\n", cmd)
			return 2
		}
		session := core.NewOwnerSession(store, core.WithLogger(logger))
		defer session.Close()
		return applyIntent(ctx, session, estate, id, intent, stdout, stderr)
	case "documents":
		intent, ok := documentIntent(cmd)
		if !ok {
			fmt.Fprintf(stderr, "action %q is not defined for documents\n", cmd)
			return 2
		}
		session := core.NewDocumentSession(store, core.WithLogger(logger))
		defer session.Close()
		return applyIntent(ctx, session, estate, id, intent, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown entity %q\n", entity)
		return 2
	}
}

func applyIntent[T domain.Record[T]](ctx context.Context, session *core.Session[T], estate, id string, intent core.Intent[T], stdout, stderr io.Writer) int {
	if err := session.Load(ctx, estate); err != nil {
		fmt.Fprintf(stderr, "load: %v\n", err)
		return 1
	}
	pending, err := session.Begin(ctx, id, intent)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", domain.UserMessage(err))
		return 1
	}
	if err := pending.Wait(ctx); err != nil {
		fmt.Fprintf(stderr, "%s\n", domain.UserMessage(err))
		return 1
	}
	fmt.Fprintln(stdout, session.Announcement())
	return 0
}

// serve exposes the ordered record sets as JSON plus Prometheus metrics for
// the mutation engine.
func serve(ctx context.Context, store domain.Store, estate, addr string, logger core.Logger, stderr io.Writer) int {
	registry := prometheus.NewRegistry()
	metrics, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		fmt.Fprintf(stderr, "metrics: %v\n", err)
		return 1
	}

	owners := core.NewOwnerSession(store, core.WithLogger(logger), core.WithMetrics(metrics))
	defer owners.Close()
	documents := core.NewDocumentSession(store, core.WithLogger(logger), core.WithMetrics(metrics))
	defer documents.Close()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/owners", func(w http.ResponseWriter, r *http.Request) {
		serveOrdered(w, r, owners, estate)
	})
	mux.HandleFunc("/documents", func(w http.ResponseWriter, r *http.Request) {
		serveOrdered(w, r, documents, estate)
	})

	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	logger.Info("serving", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(stderr, "serve: %v\n", err)
		return 1
	}
	return 0
}

func serveOrdered[T domain.Record[T]](w http.ResponseWriter, r *http.Request, session *core.Session[T], estate string) {
	if err := session.Load(r.Context(), estate); err != nil {
		http.Error(w, domain.UserMessage(err), http.StatusServiceUnavailable)
		return
	}
	req := sortRequest(r.URL.Query().Get("sort"), r.URL.Query().Get("dir") == "desc")
	ordered, err := session.Ordered(req)
	if err != nil {
		http.Error(w, domain.UserMessage(err), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ordered)
}
