// Package loader finds a client's POS exports in object storage and decodes
// them into tables.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"tap-analytics-service/internal/advanced"
	"tap-analytics-service/internal/dataset"
	"tap-analytics-service/internal/daterange"
	"tap-analytics-service/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoFiles           = errors.New("no files found")
	ErrNoRawFiles        = errors.New("no raw transaction files found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNothingLoaded     = errors.New("no file could be loaded")
	ErrStorage           = errors.New("object storage failure")
)

const downloadConcurrency = 4

// ObjectSource is the slice of object storage the loader reads from.
type ObjectSource interface {
	ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
	GetObjectRange(ctx context.Context, key string, n int64) ([]byte, error)
}

// Metadata describes what a load produced.
type Metadata struct {
	ClientID    string   `json:"clientId"`
	Paths       []string `json:"paths"`
	Rows        int      `json:"rows"`
	Cols        int      `json:"cols"`
	ColumnNames []string `json:"column_names"`
}

type Loader struct {
	src ObjectSource
	log *zap.Logger
}

func New(src ObjectSource, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{src: src, log: log}
}

// ListClientFiles lists a client folder under its capitalized, lower-case
// and configured spellings, keeping the first listing of each key.
func (l *Loader) ListClientFiles(ctx context.Context, folder string) ([]storage.ObjectInfo, error) {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	if folder == "" {
		return nil, ErrNoFiles
	}

	var (
		out     []storage.ObjectInfo
		seen    = map[string]bool{}
		tried   = map[string]bool{}
		lastErr error
		okCount int
	)
	for _, prefix := range folderPrefixes(folder) {
		if tried[prefix] {
			continue
		}
		tried[prefix] = true
		objects, err := l.src.ListObjects(ctx, prefix)
		if err != nil {
			l.log.Warn("list prefix failed", zap.String("prefix", prefix), zap.Error(err))
			lastErr = err
			continue
		}
		okCount++
		for _, o := range objects {
			if seen[o.Key] {
				continue
			}
			seen[o.Key] = true
			out = append(out, o)
		}
	}
	if okCount == 0 && lastErr != nil {
		return nil, fmt.Errorf("list %s: %w: %w", folder, ErrStorage, lastErr)
	}
	l.log.Info("client files listed", zap.String("folder", folder), zap.Int("files", len(out)))
	return out, nil
}

func folderPrefixes(folder string) []string {
	lower := strings.ToLower(folder)
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return []string{string(runes) + "/", lower + "/", folder + "/"}
}

// PickBestFile chooses the single file a quick load would use:
// transactions.parquet, transactions.csv, the newest parquet, then the
// newest csv. Ties on modification time go to the lower key.
func PickBestFile(files []storage.ObjectInfo) (storage.ObjectInfo, bool) {
	for _, want := range []string{"transactions.parquet", "transactions.csv"} {
		for _, f := range files {
			if strings.EqualFold(f.Name(), want) {
				return f, true
			}
		}
	}
	for _, ext := range []string{".parquet", ".csv"} {
		var candidates []storage.ObjectInfo
		for _, f := range files {
			if strings.HasSuffix(strings.ToLower(f.Name()), ext) {
				candidates = append(candidates, f)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			if !candidates[i].LastModified.Equal(candidates[j].LastModified) {
				return candidates[i].LastModified.After(candidates[j].LastModified)
			}
			return candidates[i].Key < candidates[j].Key
		})
		return candidates[0], true
	}
	return storage.ObjectInfo{}, false
}

// ClientRawFiles lists a client's raw exports, restricted to the window's
// months when one is given.
func (l *Loader) ClientRawFiles(ctx context.Context, clientID, folder string, window *daterange.Window) ([]storage.ObjectInfo, error) {
	files, err := l.ListClientFiles(ctx, folder)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("client %s: %w", clientID, ErrNoFiles)
	}
	raw := l.FilterRawFiles(ctx, files, window)
	if len(raw) == 0 {
		return nil, fmt.Errorf("client %s: %d files listed: %w", clientID, len(files), ErrNoRawFiles)
	}
	return raw, nil
}

// LoadClientTable loads every raw export for a client and stacks them in
// listing order.
func (l *Loader) LoadClientTable(ctx context.Context, clientID, folder string, window *daterange.Window) (dataset.Table, Metadata, error) {
	raw, err := l.ClientRawFiles(ctx, clientID, folder, window)
	if err != nil {
		return dataset.Table{}, Metadata{}, err
	}
	return l.LoadFiles(ctx, clientID, raw)
}

// LoadFiles downloads and stacks an already selected file list.
func (l *Loader) LoadFiles(ctx context.Context, clientID string, files []storage.ObjectInfo) (dataset.Table, Metadata, error) {
	tables, paths, err := l.fetchAll(ctx, files)
	if err != nil {
		return dataset.Table{}, Metadata{}, err
	}
	table := dataset.Concat(tables...)
	meta := Metadata{
		ClientID:    clientID,
		Paths:       paths,
		Rows:        table.Len(),
		Cols:        len(table.Headers),
		ColumnNames: table.Headers,
	}
	l.log.Info("client data loaded",
		zap.String("client_id", clientID),
		zap.Int("files", len(paths)),
		zap.Int("rows", meta.Rows),
		zap.Int("cols", meta.Cols),
	)
	return table, meta, nil
}

// fetchAll downloads and decodes files concurrently. Files that fail are
// logged and skipped; results keep input order.
func (l *Loader) fetchAll(ctx context.Context, files []storage.ObjectInfo) ([]dataset.Table, []string, error) {
	results := make([]dataset.Table, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			data, err := l.src.GetObject(gctx, f.Key)
			if err != nil {
				errs[i] = fmt.Errorf("%w: %w", ErrStorage, err)
				return nil
			}
			t, err := Decode(f.Name(), data)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var (
		tables     []dataset.Table
		paths      []string
		storageErr error
	)
	for i, f := range files {
		switch {
		case errs[i] != nil:
			l.log.Warn("file skipped", zap.String("key", f.Key), zap.Error(errs[i]))
			if errors.Is(errs[i], ErrStorage) && storageErr == nil {
				storageErr = errs[i]
			}
		case results[i].Empty():
			l.log.Warn("file empty", zap.String("key", f.Key))
		default:
			tables = append(tables, results[i])
			paths = append(paths, f.Key)
		}
	}
	if len(tables) == 0 {
		if storageErr != nil {
			return nil, nil, storageErr
		}
		return nil, nil, ErrNothingLoaded
	}
	return tables, paths, nil
}

// Keywords naming each auxiliary export in a client folder.
const (
	keywordSales     = "sales"
	keywordVoids     = "void"
	keywordDiscounts = "discount"
	keywordLabor     = "labor"
	keywordRemoved   = "removed"
)

// LoadAdvancedTables loads the five exports the multi-file analyses need.
// Sales are the month-named CSVs mentioning "sales" (or every raw export
// when none do); each other export is the first file naming its keyword.
func (l *Loader) LoadAdvancedTables(ctx context.Context, clientID, folder string) (advanced.Tables, Metadata, error) {
	files, err := l.ListClientFiles(ctx, folder)
	if err != nil {
		return advanced.Tables{}, Metadata{}, err
	}
	if len(files) == 0 {
		return advanced.Tables{}, Metadata{}, fmt.Errorf("client %s: %w", clientID, ErrNoFiles)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Key < files[j].Key })

	var sales []storage.ObjectInfo
	for _, f := range files {
		name := strings.ToLower(f.Name())
		if strings.HasSuffix(name, ".csv") && strings.Contains(name, keywordSales) && containsMonth(name) {
			sales = append(sales, f)
		}
	}
	if len(sales) == 0 {
		for _, f := range l.FilterRawFiles(ctx, files, nil) {
			if _, aux := containsAny(strings.ToLower(f.Name()), []string{keywordVoids, keywordDiscounts, keywordLabor, keywordRemoved}); !aux {
				sales = append(sales, f)
			}
		}
	}
	if len(sales) == 0 {
		return advanced.Tables{}, Metadata{}, fmt.Errorf("client %s: no sales exports: %w", clientID, ErrNoRawFiles)
	}

	var out advanced.Tables
	salesTables, paths, err := l.fetchAll(ctx, sales)
	if err != nil {
		return advanced.Tables{}, Metadata{}, err
	}
	out.Sales = dataset.Concat(salesTables...)

	aux := []struct {
		keyword string
		dst     *dataset.Table
	}{
		{keywordVoids, &out.Voids},
		{keywordDiscounts, &out.Discounts},
		{keywordLabor, &out.Labor},
		{keywordRemoved, &out.Removed},
	}
	for _, a := range aux {
		f, ok := firstNamed(files, a.keyword)
		if !ok {
			l.log.Info("auxiliary export missing", zap.String("client_id", clientID), zap.String("export", a.keyword))
			continue
		}
		tables, auxPaths, err := l.fetchAll(ctx, []storage.ObjectInfo{f})
		if err != nil {
			l.log.Warn("auxiliary export not loaded", zap.String("key", f.Key), zap.Error(err))
			continue
		}
		*a.dst = tables[0]
		paths = append(paths, auxPaths...)
	}

	meta := Metadata{
		ClientID:    clientID,
		Paths:       paths,
		Rows:        out.Sales.Len(),
		Cols:        len(out.Sales.Headers),
		ColumnNames: out.Sales.Headers,
	}
	l.log.Info("advanced data loaded",
		zap.String("client_id", clientID),
		zap.Int("sales_rows", out.Sales.Len()),
		zap.Int("void_rows", out.Voids.Len()),
		zap.Int("discount_rows", out.Discounts.Len()),
		zap.Int("labor_rows", out.Labor.Len()),
		zap.Int("removed_rows", out.Removed.Len()),
	)
	return out, meta, nil
}

func firstNamed(files []storage.ObjectInfo, keyword string) (storage.ObjectInfo, bool) {
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Name()), keyword) {
			return f, true
		}
	}
	return storage.ObjectInfo{}, false
}

// LoadLocalFiles decodes files from disk and stacks them in argument order.
func LoadLocalFiles(paths ...string) (dataset.Table, error) {
	if len(paths) == 0 {
		return dataset.Table{}, ErrNoFiles
	}
	tables := make([]dataset.Table, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return dataset.Table{}, fmt.Errorf("read %s: %w", p, err)
		}
		t, err := Decode(filepath.Base(p), data)
		if err != nil {
			return dataset.Table{}, err
		}
		tables = append(tables, t)
	}
	return dataset.Concat(tables...), nil
}
