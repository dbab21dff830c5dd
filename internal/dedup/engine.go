package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/Papyszoo/Modelibr-sub005/internal/config"
	"github.com/Papyszoo/Modelibr-sub005/internal/events"
	"github.com/Papyszoo/Modelibr-sub005/internal/logger"
	"github.com/Papyszoo/Modelibr-sub005/internal/models"
)

// MergeStep records the outcome of one best-effort sub-step of a merge.
// Failures here never abort the merge; they are collected and logged.
type MergeStep struct {
	Name  string
	Error error
}

// MergeSummary describes what one dedup run did.
type MergeSummary struct {
	SurvivorID   uint
	LoserIDs     []uint
	FilesLinked  int
	FilesSkipped int
	Revealed     bool
	BestEffort   []MergeStep
}

// Engine merges duplicate model uploads before they become visible.
// Triggered per metadata-provided event; not transactionally isolated
// against a concurrent third upload, which is accepted: a later
// metadata event for the same (name, vertexCount) re-runs the query and
// converges on whichever model then survives.
type Engine struct {
	modelRepo  ModelRepoInterface
	batchRepo  BatchUploadRepoInterface
	jobs       JobCancellerInterface
	dispatcher *events.Dispatcher
	log        *logger.Logger
	now        func() time.Time
}

func NewEngine(modelRepo ModelRepoInterface, batchRepo BatchUploadRepoInterface, jobs JobCancellerInterface, dispatcher *events.Dispatcher, log *logger.Logger) *Engine {
	return &Engine{
		modelRepo:  modelRepo,
		batchRepo:  batchRepo,
		jobs:       jobs,
		dispatcher: dispatcher,
		log:        log.With("component", "dedup"),
		now:        time.Now,
	}
}

// RegisterHandlers subscribes the engine to metadata-provided events.
func (e *Engine) RegisterHandlers(d *events.Dispatcher) {
	d.Register(events.ModelMetadataProvidedName, e.HandleMetadataProvided)
}

// HandleMetadataProvided runs one dedup pass for the model named in the
// event. Without a vertex count the geometry is not yet known and the
// pass is skipped.
func (e *Engine) HandleMetadataProvided(ctx context.Context, ev events.Event) error {
	md, ok := ev.(events.ModelMetadataProvided)
	if !ok {
		return fmt.Errorf("unexpected event type %T", ev)
	}
	if md.VertexCount == nil {
		return nil
	}

	summary, err := e.Run(ctx, md.Name, *md.VertexCount)
	if err != nil {
		return err
	}
	if summary != nil {
		e.log.Info("dedup pass finished",
			"survivor", summary.SurvivorID, "losers", summary.LoserIDs,
			"files_linked", summary.FilesLinked, "files_skipped", summary.FilesSkipped,
			"revealed", summary.Revealed, "best_effort_failures", failedSteps(summary.BestEffort))
	}
	return nil
}

// Run queries all live models matching (name, vertexCount) exactly,
// merges duplicates into a single survivor, and reveals the survivor if
// it is still hidden.
func (e *Engine) Run(ctx context.Context, name string, vertexCount int) (*MergeSummary, error) {
	matches, err := e.modelRepo.GetAllByNameAndVertices(ctx, name, vertexCount)
	if err != nil {
		return nil, fmt.Errorf("dedup query: %w", err)
	}
	if len(matches) == 0 {
		e.log.Warn("dedup found no models for metadata", "name", name, "vertex_count", vertexCount)
		return nil, nil
	}

	if len(matches) == 1 {
		m := &matches[0]
		summary := &MergeSummary{SurvivorID: m.ID}
		if m.Show(e.now()) {
			if err := e.saveAndPublish(ctx, m); err != nil {
				return nil, err
			}
			summary.Revealed = true
		}
		return summary, nil
	}

	survivor := selectSurvivor(matches)
	summary := &MergeSummary{SurvivorID: survivor.ID}

	for i := range matches {
		loser := &matches[i]
		if loser.ID == survivor.ID {
			continue
		}
		e.mergeLoser(ctx, survivor, loser, summary)
	}

	if survivor.Show(e.now()) {
		summary.Revealed = true
	}
	if err := e.saveAndPublish(ctx, survivor); err != nil {
		return nil, err
	}
	return summary, nil
}

// selectSurvivor prefers the lowest-ID visible duplicate so a model
// users already see keeps its identity; with no visible duplicate the
// lowest ID overall wins, which keeps the choice reproducible.
func selectSurvivor(matches []models.Model) *models.Model {
	var visible *models.Model
	for i := range matches {
		if !matches[i].IsHidden && !matches[i].DeletedAt.Valid {
			if visible == nil || matches[i].ID < visible.ID {
				visible = &matches[i]
			}
		}
	}
	if visible != nil {
		return visible
	}

	lowest := &matches[0]
	for i := range matches {
		if matches[i].ID < lowest.ID {
			lowest = &matches[i]
		}
	}
	return lowest
}

// mergeLoser folds one duplicate into the survivor: links its files
// (skipping hashes the survivor already has), re-points upload history,
// cancels in-flight thumbnail work, and deletes the loser. The history
// repoint and job cancellation are best-effort.
func (e *Engine) mergeLoser(ctx context.Context, survivor, loser *models.Model, summary *MergeSummary) {
	summary.LoserIDs = append(summary.LoserIDs, loser.ID)

	target := e.targetVersion(ctx, survivor)
	for vi := range loser.Versions {
		for _, f := range loser.Versions[vi].Files {
			if survivor.HasFileWithHash(f.ContentHash) {
				summary.FilesSkipped++
				continue
			}
			if target == nil {
				summary.BestEffort = append(summary.BestEffort, MergeStep{
					Name:  fmt.Sprintf("link file %s", f.ContentHash),
					Error: fmt.Errorf("survivor %d has no version to link into", survivor.ID),
				})
				continue
			}
			if err := e.modelRepo.LinkFile(ctx, target.ID, f); err != nil {
				e.log.Warn("file link failed during merge",
					"survivor", survivor.ID, "loser", loser.ID, "hash", f.ContentHash, "error", err)
				summary.BestEffort = append(summary.BestEffort, MergeStep{Name: "link file " + f.ContentHash, Error: err})
				continue
			}
			f.ModelVersionID = target.ID
			target.Files = append(target.Files, f)
			summary.FilesLinked++
		}
	}

	if err := e.batchRepo.UpdateModelIDForModel(ctx, loser.ID, survivor.ID); err != nil {
		e.log.Warn("batch upload repoint failed", "loser", loser.ID, "survivor", survivor.ID, "error", err)
		summary.BestEffort = append(summary.BestEffort, MergeStep{Name: "repoint batch uploads", Error: err})
	}

	cancelled, err := e.jobs.CancelForTarget(ctx, config.TargetModel, loser.ID, e.now())
	if err != nil {
		e.log.Warn("job cancellation failed during merge", "loser", loser.ID, "error", err)
		summary.BestEffort = append(summary.BestEffort, MergeStep{Name: "cancel jobs", Error: err})
	}
	for i := range cancelled {
		j := &cancelled[i]
		evs := j.PullEvents()
		if len(evs) == 0 {
			continue
		}
		if err := e.dispatcher.Publish(ctx, evs...); err != nil {
			e.log.Warn("cancellation notify failed", "job", j.ID, "error", err)
			summary.BestEffort = append(summary.BestEffort, MergeStep{Name: fmt.Sprintf("notify cancelled job %d", j.ID), Error: err})
		}
	}

	if err := e.modelRepo.Delete(ctx, loser); err != nil {
		e.log.Error("loser delete failed", "loser", loser.ID, "error", err)
		summary.BestEffort = append(summary.BestEffort, MergeStep{Name: "delete loser", Error: err})
	}
}

// targetVersion picks the survivor version merged files land in,
// creating the first version when the survivor has none yet.
func (e *Engine) targetVersion(ctx context.Context, survivor *models.Model) *models.ModelVersion {
	if len(survivor.Versions) > 0 {
		return &survivor.Versions[0]
	}

	v := &models.ModelVersion{ModelID: survivor.ID, Number: 1, CreatedAt: e.now()}
	if err := e.modelRepo.AddVersion(ctx, v); err != nil {
		e.log.Error("creating merge target version failed", "survivor", survivor.ID, "error", err)
		return nil
	}
	survivor.Versions = append(survivor.Versions, *v)
	return &survivor.Versions[0]
}

func (e *Engine) saveAndPublish(ctx context.Context, m *models.Model) error {
	if err := e.modelRepo.Save(ctx, m); err != nil {
		return fmt.Errorf("save model %d: %w", m.ID, err)
	}
	evs := m.PullEvents()
	if len(evs) == 0 {
		return nil
	}
	return e.dispatcher.Publish(ctx, evs...)
}

func failedSteps(steps []MergeStep) int {
	n := 0
	for _, s := range steps {
		if s.Error != nil {
			n++
		}
	}
	return n
}
