package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"media-cleaner/internal/archive"
	"media-cleaner/internal/blobstore"
	"media-cleaner/internal/logging"
	"media-cleaner/internal/mediatypes"
	"media-cleaner/internal/metrics"
	"media-cleaner/internal/notify"
	"media-cleaner/internal/pipeline"
	"media-cleaner/internal/sanitize"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an item ID is not in the queue.
	ErrNotFound = errors.New("item not found")
	// ErrBusy is returned when a batch sweep or export is already running.
	ErrBusy = errors.New("batch operation in progress")
	// ErrVideoBusy is returned when the video concurrency gate rejects a
	// manual start because another video item is already processing.
	ErrVideoBusy = errors.New("another video is already processing")
	// ErrAlreadyProcessing is returned for a manual start on an item
	// that is already being processed.
	ErrAlreadyProcessing = errors.New("item is already processing")
)

// ImageProcessor sanitizes one image. Implemented by sanitize.ImageSanitizer.
type ImageProcessor interface {
	Sanitize(ctx context.Context, r io.Reader, mimeType string, preserveQuality bool) ([]byte, error)
}

// VideoProcessor plans and performs one video sanitization. Implemented
// by sanitize.VideoSanitizer.
type VideoProcessor interface {
	Plan(sourceName, mimeType string, addPrefix bool) sanitize.Plan
	Sanitize(ctx context.Context, srcPath, destPath string, plan sanitize.Plan, preserveQuality bool, onProgress func(float64)) error
}

// PreviewProcessor renders the admission-time preview for a source
// file. Implemented by sanitize.PreviewRenderer.
type PreviewProcessor interface {
	Render(ctx context.Context, path string, kind mediatypes.Kind) ([]byte, error)
}

// Options configures an Orchestrator.
type Options struct {
	Images   ImageProcessor
	Videos   VideoProcessor
	Previews PreviewProcessor

	// MaxConcurrentVideoJobs caps simultaneous video sanitizations.
	// Zero means unlimited; constrained profiles run with 1.
	MaxConcurrentVideoJobs int

	// PreviewWorkers sizes the admission preview pool. Zero picks a
	// CPU-derived default.
	PreviewWorkers int
}

// Orchestrator owns the queue of pipeline items and drives every
// pipeline operation: admission, per-item and batch sanitization,
// removal, reset, and archive export.
type Orchestrator struct {
	queue    *pipeline.Queue
	store    *blobstore.Store
	images   ImageProcessor
	videos   VideoProcessor
	previews PreviewProcessor
	notices  *notify.Center
	exporter *archive.Exporter

	settingsMu sync.RWMutex
	settings   pipeline.Settings

	admitMu   sync.Mutex
	batchBusy atomic.Bool
	exporting atomic.Bool

	videoSlots chan struct{} // nil means unlimited

	previewWorkers int
}

// New creates an Orchestrator with an empty queue and default settings.
func New(store *blobstore.Store, exporter *archive.Exporter, opts Options) *Orchestrator {
	o := &Orchestrator{
		queue:          pipeline.NewQueue(),
		store:          store,
		images:         opts.Images,
		videos:         opts.Videos,
		previews:       opts.Previews,
		notices:        notify.NewCenter(),
		exporter:       exporter,
		settings:       pipeline.DefaultSettings(),
		previewWorkers: opts.PreviewWorkers,
	}
	if o.previewWorkers <= 0 {
		o.previewWorkers = 2
	}
	if opts.MaxConcurrentVideoJobs > 0 {
		o.videoSlots = make(chan struct{}, opts.MaxConcurrentVideoJobs)
	}
	return o
}

// IncomingFile is one candidate handed to Admit.
type IncomingFile struct {
	Name         string
	Size         int64
	LastModified int64 // unix milliseconds
	MimeType     string
	Data         io.Reader
}

// AdmitResult reports what Admit did with a candidate batch.
type AdmitResult struct {
	Accepted   []pipeline.Item
	Duplicates []string
}

// Admit validates candidates, rejects duplicates against the queue and
// within the batch itself, stores source bytes, renders previews, and
// appends the surviving items to the queue in submission order.
// Unsupported MIME types are silently dropped.
func (o *Orchestrator) Admit(ctx context.Context, files []IncomingFile) AdmitResult {
	o.admitMu.Lock()
	defer o.admitMu.Unlock()

	var result AdmitResult
	seen := make(map[string]bool)
	var accepted []pipeline.Item

	for _, f := range files {
		kind, ok := mediatypes.KindOf(f.MimeType)
		if !ok {
			metrics.UnsupportedDroppedTotal.Inc()
			logging.Debug("dropped unsupported file %q (%s)", f.Name, f.MimeType)
			continue
		}

		source := pipeline.Source{
			Name:         f.Name,
			Size:         f.Size,
			LastModified: f.LastModified,
			MimeType:     mediatypes.Normalize(f.MimeType),
		}
		key := source.Key()
		if seen[key] || o.queue.HasKey(key) {
			result.Duplicates = append(result.Duplicates, f.Name)
			metrics.DuplicatesRejectedTotal.Inc()
			continue
		}
		seen[key] = true

		blob, err := o.store.Put(f.Data, mediatypes.ExtensionFor(f.MimeType))
		if err != nil {
			logging.Error("failed to store source bytes for %q: %v", f.Name, err)
			continue
		}

		accepted = append(accepted, pipeline.Item{
			ID:         uuid.NewString(),
			Source:     source,
			Kind:       kind,
			Status:     pipeline.StatusPending,
			SourceBlob: blob,
		})
		metrics.AdmissionsTotal.WithLabelValues(string(kind)).Inc()
	}

	o.renderPreviews(ctx, accepted)

	o.queue.Append(accepted...)
	o.observeQueue()

	result.Accepted = accepted
	o.notices.PublishDuplicates(result.Duplicates)
	return result
}

// renderPreviews fills in PreviewBlob for each item using a small
// worker pool. Preview failure is non-fatal; the item is admitted with
// no preview.
func (o *Orchestrator) renderPreviews(ctx context.Context, items []pipeline.Item) {
	if o.previews == nil || len(items) == 0 {
		return
	}

	sem := make(chan struct{}, o.previewWorkers)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(it *pipeline.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			path, ok := o.store.Path(it.SourceBlob)
			if !ok {
				return
			}
			data, err := o.previews.Render(ctx, path, it.Kind)
			if err != nil {
				metrics.PreviewFailuresTotal.WithLabelValues(string(it.Kind)).Inc()
				logging.Warn("preview rendering failed for %q: %v", it.Source.Name, err)
				return
			}
			blob, err := o.store.PutBytes(data, ".jpg")
			if err != nil {
				logging.Warn("failed to store preview for %q: %v", it.Source.Name, err)
				return
			}
			it.PreviewBlob = blob
		}(&items[i])
	}
	wg.Wait()
}

// ProcessOne drives a single pending item to a terminal state. It
// returns once the item is Done or Error; sanitization failures are
// recorded on the item, not returned. Items already terminal are left
// alone. Manual starts are refused while a batch sweep or export runs;
// only one pipeline operation owns the queue at a time.
func (o *Orchestrator) ProcessOne(ctx context.Context, id string) error {
	if o.batchBusy.Load() || o.exporting.Load() {
		return ErrBusy
	}
	item, ok := o.queue.Get(id)
	if !ok {
		return ErrNotFound
	}
	switch item.Status {
	case pipeline.StatusDone, pipeline.StatusError:
		return nil
	case pipeline.StatusProcessing:
		return ErrAlreadyProcessing
	}

	if item.Kind == mediatypes.KindVideo {
		if !o.acquireVideoSlot(ctx, false) {
			return ErrVideoBusy
		}
		defer o.releaseVideoSlot()
	}

	o.processItem(ctx, id)
	return nil
}

// ProcessAllPending sweeps the queue in order, driving every item still
// pending at visit time to a terminal state, one at a time. It blocks
// until the sweep finishes. Per-item failures never abort the sweep.
func (o *Orchestrator) ProcessAllPending(ctx context.Context) error {
	if o.exporting.Load() {
		return ErrBusy
	}
	if !o.batchBusy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.batchBusy.Store(false)

	metrics.BatchSweepsTotal.Inc()

	snapshot, _ := o.queue.Snapshot()
	for _, snap := range snapshot {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Re-check: the item may have completed or vanished since the
		// snapshot was taken.
		item, ok := o.queue.Get(snap.ID)
		if !ok || item.Status != pipeline.StatusPending {
			continue
		}

		if item.Kind == mediatypes.KindVideo {
			if !o.acquireVideoSlot(ctx, true) {
				return ctx.Err()
			}
			o.processItem(ctx, item.ID)
			o.releaseVideoSlot()
			continue
		}
		o.processItem(ctx, item.ID)
	}
	return nil
}

// processItem runs the sanitizer matching the item's kind and records
// the terminal state. The caller is responsible for video slot
// bookkeeping.
func (o *Orchestrator) processItem(ctx context.Context, id string) {
	item, ok := o.queue.ClaimProcessing(id)
	if !ok {
		return
	}

	settings := o.Settings()

	if item.Kind == mediatypes.KindVideo {
		// The output name is fixed now; later prefix toggles must not
		// affect this item.
		plan := o.videos.Plan(item.Source.Name, item.Source.MimeType, settings.AddNamePrefix)
		item.OutputName = plan.OutputName
		o.queue.Replace(item)
	}
	o.observeQueue()

	start := time.Now()
	var err error
	switch item.Kind {
	case mediatypes.KindImage:
		err = o.sanitizeImage(ctx, &item, settings)
	case mediatypes.KindVideo:
		err = o.sanitizeVideo(ctx, &item, settings)
	}
	elapsed := time.Since(start)
	metrics.SanitizeDuration.WithLabelValues(string(item.Kind)).Observe(elapsed.Seconds())

	if err != nil {
		item.Status = pipeline.StatusError
		item.ErrorDetail = failureDetail(err)
		item.ResultBlob = blobstore.None
		metrics.SanitizationsTotal.WithLabelValues(string(item.Kind), "error").Inc()
		logging.Warn("sanitization failed for %q: %v", item.Source.Name, err)
	} else {
		item.Status = pipeline.StatusDone
		item.Progress = 1
		item.ErrorDetail = ""
		metrics.SanitizationsTotal.WithLabelValues(string(item.Kind), "done").Inc()
		logging.Info("sanitized %q (%s) in %v", item.Source.Name, item.Kind, elapsed.Round(time.Millisecond))
	}
	o.queue.Replace(item)
	o.observeQueue()
}

func (o *Orchestrator) sanitizeImage(ctx context.Context, item *pipeline.Item, settings pipeline.Settings) error {
	src, err := o.store.Open(item.SourceBlob)
	if err != nil {
		return &sanitize.Error{Kind: sanitize.ErrRead, Detail: "could not read file", Err: err}
	}
	defer src.Close()

	out, err := o.images.Sanitize(ctx, src, item.Source.MimeType, settings.PreserveQuality)
	if err != nil {
		return err
	}

	blob, err := o.store.PutBytes(out, mediatypes.ExtensionFor(item.Source.MimeType))
	if err != nil {
		return &sanitize.Error{Kind: sanitize.ErrEncode, Detail: "failed to create cleaned image", Err: err}
	}
	item.ResultBlob = blob
	item.ResultSize = int64(len(out))
	return nil
}

func (o *Orchestrator) sanitizeVideo(ctx context.Context, item *pipeline.Item, settings pipeline.Settings) error {
	srcPath, ok := o.store.Path(item.SourceBlob)
	if !ok {
		return &sanitize.Error{Kind: sanitize.ErrRead, Detail: "could not load video file"}
	}

	plan := o.videos.Plan(item.Source.Name, item.Source.MimeType, settings.AddNamePrefix)
	destPath := o.store.TempPath("." + plan.Extension)

	err := o.videos.Sanitize(ctx, srcPath, destPath, plan, settings.PreserveQuality, func(f float64) {
		if current, ok := o.queue.Get(item.ID); ok {
			current.Progress = f
			o.queue.Replace(current)
		}
	})
	if err != nil {
		return err
	}

	blob, err := o.store.Adopt(destPath)
	if err != nil {
		return &sanitize.Error{Kind: sanitize.ErrEncode, Detail: "failed to store cleaned video", Err: err}
	}
	item.ResultBlob = blob
	item.ResultSize = o.store.Size(blob)
	return nil
}

// RemoveItem deletes one item and releases its handles. It silently
// no-ops while that item is processing or any batch operation runs.
func (o *Orchestrator) RemoveItem(id string) {
	if o.batchBusy.Load() || o.exporting.Load() {
		logging.Debug("remove of %s ignored: batch operation active", id)
		return
	}
	item, ok := o.queue.Get(id)
	if !ok || item.Status == pipeline.StatusProcessing {
		return
	}

	removed, ok := o.queue.Remove(id)
	if !ok {
		return
	}
	o.releaseHandles(removed)
	o.observeQueue()
	logging.Debug("removed item %s (%q)", id, removed.Source.Name)
}

// ResetAll releases every item's handles and empties the queue. It is a
// no-op while a batch sweep or export is running.
func (o *Orchestrator) ResetAll() {
	if o.batchBusy.Load() || o.exporting.Load() {
		logging.Debug("reset ignored: batch operation active")
		return
	}

	removed := o.queue.Clear()
	for _, item := range removed {
		o.releaseHandles(item)
	}
	o.notices.Dismiss()
	o.observeQueue()
	logging.Info("queue reset, released %d item(s)", len(removed))
}

func (o *Orchestrator) releaseHandles(item pipeline.Item) {
	for _, h := range item.Handles() {
		o.store.Release(h)
	}
}

// ExportDone bundles every done item's result into one archive and
// returns its path. With zero done items it does nothing and returns an
// empty path. Export is refused while a batch sweep runs, and the
// exporting flag is cleared on every exit path.
func (o *Orchestrator) ExportDone(ctx context.Context) (string, error) {
	if o.batchBusy.Load() {
		return "", ErrBusy
	}
	if !o.exporting.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer o.exporting.Store(false)

	settings := o.Settings()
	items, _ := o.queue.Snapshot()

	var entries []archive.Entry
	for _, item := range items {
		if item.Status != pipeline.StatusDone || item.ResultBlob == blobstore.None {
			continue
		}
		blob := item.ResultBlob
		entries = append(entries, archive.Entry{
			Name: o.resolveOutputName(item, settings),
			Open: func() (io.ReadCloser, error) {
				return o.store.Open(blob)
			},
		})
	}

	if len(entries) == 0 {
		metrics.ExportsTotal.WithLabelValues("empty").Inc()
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		return "", err
	}

	path, err := o.exporter.Export(entries)
	if err != nil {
		metrics.ExportsTotal.WithLabelValues("error").Inc()
		logging.Error("archive export failed: %v", err)
		return "", err
	}

	metrics.ExportsTotal.WithLabelValues("success").Inc()
	metrics.ExportedFilesTotal.Add(float64(len(entries)))
	if info, err := os.Stat(path); err == nil {
		metrics.ExportArchiveBytes.Observe(float64(info.Size()))
	}
	return path, nil
}

// resolveOutputName applies the export naming rules: images reflect the
// prefix setting in force right now, videos keep the name fixed at
// processing start.
func (o *Orchestrator) resolveOutputName(item pipeline.Item, settings pipeline.Settings) string {
	if item.Kind == mediatypes.KindImage {
		return pipeline.ImageOutputName(item.Source.Name, settings.AddNamePrefix)
	}
	if item.OutputName != "" {
		return item.OutputName
	}
	return item.Source.Name
}

// OpenPreview returns a reader over an item's preview rendering.
func (o *Orchestrator) OpenPreview(id string) (*os.File, error) {
	item, ok := o.queue.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return o.store.Open(item.PreviewBlob)
}

// OpenResult returns a reader over an item's sanitized result plus the
// name it should download as.
func (o *Orchestrator) OpenResult(id string) (*os.File, string, error) {
	item, ok := o.queue.Get(id)
	if !ok {
		return nil, "", ErrNotFound
	}
	if item.Status != pipeline.StatusDone {
		return nil, "", blobstore.ErrNotFound
	}
	f, err := o.store.Open(item.ResultBlob)
	if err != nil {
		return nil, "", err
	}
	return f, o.resolveOutputName(item, o.Settings()), nil
}

// Items returns a value snapshot of the queue plus its version.
func (o *Orchestrator) Items() ([]pipeline.Item, uint64) {
	return o.queue.Snapshot()
}

// Counts returns the number of pending and done items.
func (o *Orchestrator) Counts() (pending, done int) {
	return o.queue.Counts()
}

// IsBatchBusy reports whether a process-all sweep is running.
func (o *Orchestrator) IsBatchBusy() bool {
	return o.batchBusy.Load()
}

// IsExporting reports whether an archive export is running.
func (o *Orchestrator) IsExporting() bool {
	return o.exporting.Load()
}

// Settings returns the current batch settings.
func (o *Orchestrator) Settings() pipeline.Settings {
	o.settingsMu.RLock()
	defer o.settingsMu.RUnlock()
	return o.settings
}

// UpdateSettings replaces the batch settings. Items already processing
// keep the snapshot taken when they started.
func (o *Orchestrator) UpdateSettings(s pipeline.Settings) {
	o.settingsMu.Lock()
	o.settings = s
	o.settingsMu.Unlock()
	logging.Debug("settings updated: prefix=%v quality=%v", s.AddNamePrefix, s.PreserveQuality)
}

// Notices exposes the transient notification center.
func (o *Orchestrator) Notices() *notify.Center {
	return o.notices
}

// Subscribe returns a coalescing change-signal channel for queue
// mutations, for consumers that poll state on demand.
func (o *Orchestrator) Subscribe() <-chan struct{} {
	return o.queue.Subscribe()
}

// acquireVideoSlot takes a slot from the video gate. With wait=false it
// fails fast when the gate is full; with wait=true it blocks until a
// slot frees or the context ends.
func (o *Orchestrator) acquireVideoSlot(ctx context.Context, wait bool) bool {
	if o.videoSlots == nil {
		return true
	}
	if wait {
		select {
		case o.videoSlots <- struct{}{}:
			return true
		case <-ctx.Done():
			return false
		}
	}
	select {
	case o.videoSlots <- struct{}{}:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) releaseVideoSlot() {
	if o.videoSlots != nil {
		<-o.videoSlots
	}
}

// failureDetail extracts the human-readable cause recorded on the item.
func failureDetail(err error) string {
	var serr *sanitize.Error
	if errors.As(err, &serr) {
		return serr.Detail
	}
	return err.Error()
}

func (o *Orchestrator) observeQueue() {
	items, _ := o.queue.Snapshot()
	var pending, processing, done, errored int
	for _, item := range items {
		switch item.Status {
		case pipeline.StatusPending:
			pending++
		case pipeline.StatusProcessing:
			processing++
		case pipeline.StatusDone:
			done++
		case pipeline.StatusError:
			errored++
		}
	}
	metrics.ObserveQueue(pending, processing, done, errored)
}
