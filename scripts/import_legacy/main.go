// Command import_legacy loads a JSON export of the old document store into
// Postgres. Every document is strictly decoded; malformed documents are
// reported and skipped, existing rows are left untouched.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/lostfound-api/internal/models"
	"github.com/noah-isme/lostfound-api/internal/repository"
	"github.com/noah-isme/lostfound-api/internal/service"
	"github.com/noah-isme/lostfound-api/pkg/config"
	"github.com/noah-isme/lostfound-api/pkg/database"
	"github.com/noah-isme/lostfound-api/pkg/identity"
	"github.com/noah-isme/lostfound-api/pkg/logger"
)

const collectionKey = "reports"

type reportImporter interface {
	Import(ctx context.Context, report *models.Report) (bool, error)
}

type summary struct {
	Inserted int
	Existing int
	Invalid  int
}

func main() {
	var (
		path   string
		dryRun bool
	)
	flag.StringVar(&path, "file", "reports.json", "Path to the JSON export")
	flag.BoolVar(&dryRun, "dry-run", false, "Decode only, do not write")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	f, err := os.Open(path)
	if err != nil {
		logr.Fatal("open export", zap.Error(err))
	}
	defer f.Close()
	docs, err := readExport(f)
	if err != nil {
		logr.Fatal("read export", zap.Error(err))
	}

	ctx := context.Background()
	metrics := service.NewMetricsService()
	integrity := service.NewIntegrityReporter(logr, metrics, nil)
	reconciler := identity.NewReconciler(identity.WithIntegrityHook(integrity.Report))

	var importer reportImporter
	if !dryRun {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("connect postgres", zap.Error(err))
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("ensure schema", zap.Error(err))
		}
		importer = repository.NewReportRepository(db, reconciler)
	}

	result, err := importDocuments(ctx, docs, importer, reconciler, logr)
	if err != nil {
		logr.Fatal("import failed", zap.Error(err))
	}
	fmt.Printf("Inserted: %d, Existing: %d, Invalid: %d\n", result.Inserted, result.Existing, result.Invalid)
	if result.Invalid > 0 {
		os.Exit(2)
	}
}

// readExport accepts either {"<key>": {...}} or {"reports": {"<key>": {...}}}.
func readExport(r io.Reader) (map[string]map[string]interface{}, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	if nested, ok := raw[collectionKey]; ok && len(raw) == 1 {
		raw = nil
		if err := json.Unmarshal(nested, &raw); err != nil {
			return nil, fmt.Errorf("decode %s collection: %w", collectionKey, err)
		}
	}
	docs := make(map[string]map[string]interface{}, len(raw))
	for key, value := range raw {
		var doc map[string]interface{}
		if err := json.Unmarshal(value, &doc); err != nil {
			return nil, fmt.Errorf("document %s is not an object: %w", key, err)
		}
		docs[key] = doc
	}
	return docs, nil
}

// importDocuments decodes docs in key order. A nil importer only validates.
func importDocuments(ctx context.Context, docs map[string]map[string]interface{}, importer reportImporter, reconciler *identity.Reconciler, logr *zap.Logger) (summary, error) {
	keys := make([]string, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var result summary
	for _, key := range keys {
		report, err := repository.DecodeReportDocument(key, docs[key], reconciler)
		if err != nil {
			result.Invalid++
			logr.Warn("skipping malformed document", zap.String("key", key), zap.Error(err))
			continue
		}
		if importer == nil {
			result.Inserted++
			continue
		}
		inserted, err := importer.Import(ctx, report)
		if err != nil {
			return result, fmt.Errorf("import %s: %w", key, err)
		}
		if inserted {
			result.Inserted++
		} else {
			result.Existing++
		}
	}
	return result, nil
}
