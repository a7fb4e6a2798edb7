package repos

import (
	"context"
	"github.com/DataDog/go-sqllexer"
	"github.com/jackc/pgx/v5"
	"log/slog"
	"time"
)

// tracer logs failed statements and anything slower than slowQueryThreshold.
type tracer struct{}

var normalizer = sqllexer.NewNormalizer()

type ctxKey int

const (
	_ ctxKey = iota
	traceQueryCtxKey
	traceBatchCtxKey
	traceCopyFromCtxKey
)

const slowQueryThreshold = 500 * time.Millisecond

type traceData struct {
	startTime time.Time
	sql       string
}

func normalize(sql string) string {
	out, _, err := normalizer.Normalize(sql)
	if err != nil {
		slog.Debug("normalize sql", "err", err)
		return sql
	}
	return out
}

func (tl *tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceQueryCtxKey, &traceData{
		startTime: time.Now(),
		sql:       normalize(data.SQL),
	})
}

func (tl *tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	d, ok := ctx.Value(traceQueryCtxKey).(*traceData)
	if !ok {
		return
	}
	elapsed := time.Since(d.startTime)

	if data.Err != nil {
		slog.Error("query failed", "sql", d.sql, "err", data.Err, "elapsed", elapsed)
		return
	}
	if elapsed > slowQueryThreshold {
		slog.Warn("slow query", "sql", d.sql, "elapsed", elapsed, "tag", data.CommandTag.String())
	}
}

type traceBatchData struct {
	startTime time.Time
	sql       map[string]int
}

func (tl *tracer) TraceBatchStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchStartData) context.Context {
	sql := make(map[string]int)
	for _, q := range data.Batch.QueuedQueries {
		sql[normalize(q.SQL)]++
	}
	return context.WithValue(ctx, traceBatchCtxKey, &traceBatchData{
		startTime: time.Now(),
		sql:       sql,
	})
}

func (tl *tracer) TraceBatchQuery(_ context.Context, _ *pgx.Conn, data pgx.TraceBatchQueryData) {
	if data.Err != nil {
		slog.Error("batch query failed", "sql", normalize(data.SQL), "err", data.Err)
	}
}

func (tl *tracer) TraceBatchEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceBatchEndData) {
	d, ok := ctx.Value(traceBatchCtxKey).(*traceBatchData)
	if !ok {
		return
	}
	elapsed := time.Since(d.startTime)

	if data.Err != nil {
		slog.Error("batch failed", "err", data.Err, "elapsed", elapsed)
		return
	}
	if elapsed > slowQueryThreshold {
		slog.Warn("slow batch", "sql", d.sql, "elapsed", elapsed)
	}
}

type traceCopyFromData struct {
	startTime time.Time
	table     pgx.Identifier
	columns   []string
}

func (tl *tracer) TraceCopyFromStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceCopyFromStartData) context.Context {
	return context.WithValue(ctx, traceCopyFromCtxKey, &traceCopyFromData{
		startTime: time.Now(),
		table:     data.TableName,
		columns:   data.ColumnNames,
	})
}

func (tl *tracer) TraceCopyFromEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceCopyFromEndData) {
	d, ok := ctx.Value(traceCopyFromCtxKey).(*traceCopyFromData)
	if !ok {
		return
	}
	elapsed := time.Since(d.startTime)

	if data.Err != nil {
		slog.Error("copy failed", "table", d.table.Sanitize(), "columns", d.columns, "err", data.Err, "elapsed", elapsed)
		return
	}
	slog.Debug("copy", "table", d.table.Sanitize(), "rows", data.CommandTag.RowsAffected(), "elapsed", elapsed)
}
