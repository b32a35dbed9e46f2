package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sociogrid/datatable"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 60 * time.Second

// Config controls a Pager.
type Config struct {
	// Initial is the first page requested by Start.
	Initial datatable.Pagination

	// Timeout bounds each fetch. Zero means DefaultTimeout.
	Timeout time.Duration

	// Schedule runs deliveries on the goroutine that owns the table, e.g.
	// fyne.Do. Nil runs them on the fetching goroutine.
	Schedule func(func())

	// Options are the table options; Pager fills in the pagination fields.
	Options datatable.Options[datatable.Record]

	Logger *slog.Logger
}

// Pager owns the pagination of a table over a PageSource. The table asks
// it for page changes; the pager fetches the page and, once it arrives,
// updates the pagination and the rows together. A response to a request
// that has since been superseded is dropped.
type Pager struct {
	src PageSource
	cfg Config
	log *slog.Logger

	// Fields below are only touched on the scheduling goroutine, except
	// for the token and cancel func, which are guarded by mu.
	state   datatable.Pagination
	page    Page
	table   *datatable.Table[datatable.Record]
	onPage  func(Page)
	onError func(error)

	mu      sync.Mutex
	token   uuid.UUID
	cancel  context.CancelFunc
	loading bool
	closed  bool
}

// NewPager returns a pager that has not fetched anything yet.
func NewPager(src PageSource, cfg Config) *Pager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Schedule == nil {
		cfg.Schedule = func(fn func()) { fn() }
	}
	if cfg.Initial.PageSize <= 0 {
		cfg.Initial = datatable.DefaultPagination()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Pager{src: src, cfg: cfg, log: log, state: cfg.Initial}
}

// OnPage sets the callback run after each accepted page.
func (p *Pager) OnPage(fn func(Page)) { p.onPage = fn }

// OnError sets the callback run when a fetch fails. The pagination is left
// unchanged.
func (p *Pager) OnError(fn func(error)) { p.onError = fn }

// Pagination returns the accepted pagination.
func (p *Pager) Pagination() datatable.Pagination { return p.state }

// Page returns the last accepted page.
func (p *Pager) Page() Page { return p.page }

// Table returns the table fed by the pager, nil before the first page.
func (p *Pager) Table() *datatable.Table[datatable.Record] { return p.table }

// Loading reports whether a fetch is in flight.
func (p *Pager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Start fetches the initial page.
func (p *Pager) Start() {
	p.Request(p.state)
}

// Request asks for a page. It is the pagination change handler of the
// table and returns at once; the page is delivered through Schedule.
func (p *Pager) Request(next datatable.Pagination) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	token := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
	p.token, p.cancel, p.loading = token, cancel, true
	p.mu.Unlock()

	p.log.Debug("page requested", "request", token, "page_index", next.PageIndex, "page_size", next.PageSize)

	go func() {
		defer cancel()
		page, err := p.src.FetchPage(ctx, next)
		if err == nil {
			page.Pagination = next
		}
		p.cfg.Schedule(func() { p.deliver(token, page, err) })
	}()
}

func (p *Pager) current(token uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || token != p.token {
		return false
	}
	p.loading = false
	return true
}

func (p *Pager) deliver(token uuid.UUID, page Page, err error) {
	if !p.current(token) {
		p.log.Debug("stale page dropped", "request", token)
		return
	}
	if err != nil {
		p.log.Warn("page fetch failed", "request", token, "err", err)
		if p.onError != nil {
			p.onError(err)
		}
		return
	}

	p.state = page.Pagination
	p.page = page
	if err := p.apply(page); err != nil {
		p.log.Error("page could not be shown", "err", err)
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	if p.onPage != nil {
		p.onPage(page)
	}
}

func (p *Pager) apply(page Page) error {
	opts := p.TableOptions()
	if p.table != nil {
		return p.table.Update(page.Records, opts)
	}
	cols, err := datatable.SourceColumns(page)
	if err != nil {
		return err
	}
	tbl, err := datatable.NewTable(cols, page.Records, opts)
	if err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	p.table = tbl
	return nil
}

// TableOptions returns cfg.Options with the pagination handed over to the
// pager.
func (p *Pager) TableOptions() datatable.Options[datatable.Record] {
	opts := p.cfg.Options
	opts.Pagination = &p.state
	opts.OnPaginationChange = p.Request
	opts.ManualPagination = true
	opts.RowCount = p.page.Total
	return opts
}

// SetGlobalFilterFn replaces the global filter function, now and for every
// later page.
func (p *Pager) SetGlobalFilterFn(fn datatable.GlobalFilterFunc[datatable.Record]) error {
	p.cfg.Options.GlobalFilterFn = fn
	if p.table == nil {
		return nil
	}
	return p.table.SetOptions(p.TableOptions())
}

// Close cancels any fetch in flight and drops later deliveries.
func (p *Pager) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
	}
}
