package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Batch size bounds for bulk updates.
const (
	DefaultBatchSize = 50
	MinBatchSize     = 1
	MaxBatchSize     = 500
)

// MilestoneService is the milestone completion and bulk-update engine.
type MilestoneService struct {
	db            *gorm.DB
	componentRepo *repository.ComponentRepository
	projectRepo   *repository.ProjectRepository
	auditRepo     *repository.AuditRepository
	notifier      *Notifier
	logger        *zap.Logger

	// now is swappable in tests for the temporal policy.
	now func() time.Time
}

// NewMilestoneService creates the milestone engine.
func NewMilestoneService(db *gorm.DB, repos *repository.Repositories, notifier *Notifier, logger *zap.Logger) *MilestoneService {
	return &MilestoneService{
		db:            db,
		componentRepo: repos.Component,
		projectRepo:   repos.Project,
		auditRepo:     repos.Audit,
		notifier:      notifier,
		logger:        logger,
		now:           time.Now,
	}
}

// BulkOptions controls a bulk update request.
type BulkOptions struct {
	ValidateOnly bool
	Atomic       bool
	Notify       bool
	BatchSize    int
}

// BulkItemResult is the per-item outcome of a bulk update.
type BulkItemResult struct {
	ComponentID   string                      `json:"component_id"`
	MilestoneName string                      `json:"milestone_name"`
	Success       bool                        `json:"success"`
	Error         string                      `json:"error,omitempty"`
	Milestone     *entity.ComponentMilestone  `json:"milestone,omitempty"`
}

// BulkResponse aggregates a bulk update.
type BulkResponse struct {
	Successful    int              `json:"successful"`
	Failed        int              `json:"failed"`
	TransactionID string           `json:"transaction_id,omitempty"`
	Results       []BulkItemResult `json:"results"`
}

// UpdateMilestone applies one milestone update: validate, persist,
// sync the paired field weld on a "Weld Made" transition, recompute
// completion and write an audit entry.
func (s *MilestoneService) UpdateMilestone(ctx context.Context, userID string, upd MilestoneUpdate) (*entity.ComponentMilestone, error) {
	component, milestone, err := s.validateUpdate(ctx, userID, upd, map[string]bool{})
	if err != nil {
		return nil, err
	}

	now := s.now()
	wasCompleted := milestone.IsCompleted

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := applyValue(milestone, upd, userID, now)
		if err := tx.Save(milestone).Error; err != nil {
			return fmt.Errorf("persist milestone: %w", err)
		}

		if milestone.Name == entity.MilestoneWeldMade && milestone.IsCompleted != wasCompleted {
			if err := s.syncFieldWeld(ctx, tx, component, milestone); err != nil {
				return err
			}
		}

		if err := s.recalculateComponent(ctx, tx, component.ID); err != nil {
			return fmt.Errorf("recalculate completion: %w", err)
		}

		if len(changes) > 0 {
			return tx.Create(&entity.AuditLog{
				ID:         uuid.New().String()[:32],
				ProjectID:  component.ProjectID,
				EntityType: entity.AuditEntityComponentMilestone,
				EntityID:   milestone.ID,
				UserID:     userID,
				Action:     entity.AuditActionUpdate,
				Changes:    changes,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.MilestoneUpdated(ctx, component.ProjectID, component.ID, milestone.Name)
	return milestone, nil
}

// BulkUpdate validates every update, partitions the valid ones into
// bounded transactional chunks, and applies each chunk. One item's
// persistence failure never aborts its siblings: every item runs under
// its own savepoint inside the chunk transaction. With Atomic set, any
// validation failure rejects the whole batch before a chunk runs.
func (s *MilestoneService) BulkUpdate(ctx context.Context, userID string, updates []MilestoneUpdate, opts BulkOptions) (*BulkResponse, error) {
	if len(updates) == 0 {
		return &BulkResponse{Results: []BulkItemResult{}}, nil
	}
	batchSize := clampBatchSize(opts.BatchSize)

	results := make([]BulkItemResult, len(updates))
	memberCache := map[string]bool{}
	// Duplicate targets within one request share one loaded row, so a
	// later update applies on top of the earlier one instead of a
	// pre-request snapshot.
	componentCache := map[string]*entity.Component{}
	milestoneCache := map[string]*entity.ComponentMilestone{}
	var valid []resolvedUpdate

	for i, upd := range updates {
		results[i] = BulkItemResult{ComponentID: upd.ComponentID, MilestoneName: upd.MilestoneName}
		component, milestone, err := s.validateUpdate(ctx, userID, upd, memberCache)
		if err != nil {
			results[i].Error = err.Error()
			continue
		}
		if cached, ok := componentCache[component.ID]; ok {
			component = cached
		} else {
			componentCache[component.ID] = component
		}
		if cached, ok := milestoneCache[milestone.ID]; ok {
			milestone = cached
		} else {
			milestoneCache[milestone.ID] = milestone
		}
		valid = append(valid, resolvedUpdate{idx: i, update: upd, component: component, milestone: milestone})
	}

	failedValidation := len(updates) - len(valid)
	if opts.Atomic && failedValidation > 0 {
		return nil, fmt.Errorf("%w (%d of %d)", ErrAtomicValidation, failedValidation, len(updates))
	}

	// A batch is scoped to one project: the transaction record and the
	// undo membership check both hang off a single project id.
	if len(valid) > 0 {
		projectID := valid[0].component.ProjectID
		for _, item := range valid {
			if item.component.ProjectID != projectID {
				return nil, ErrCrossProjectBatch
			}
		}
	}

	if opts.ValidateOnly {
		for _, item := range valid {
			results[item.idx].Success = true
			results[item.idx].Milestone = item.milestone
		}
		return &BulkResponse{
			Successful: len(valid),
			Failed:     failedValidation,
			Results:    results,
		}, nil
	}

	// Nothing survived validation, so there is nothing to persist and
	// no transaction record to undo against.
	if len(valid) == 0 {
		return &BulkResponse{
			Failed:  len(updates),
			Results: results,
		}, nil
	}

	transactionID := uuid.New().String()
	now := s.now()

	for _, chunk := range chunkResolved(valid, batchSize) {
		chunkErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			touched := make(map[string]*entity.Component)
			var weldSyncs []*resolvedUpdate

			for i := range chunk {
				item := &chunk[i]
				wasCompleted := item.milestone.IsCompleted

				itemErr := tx.Transaction(func(itx *gorm.DB) error {
					item.changes = applyValue(item.milestone, item.update, userID, now)
					return itx.Save(item.milestone).Error
				})
				if itemErr != nil {
					results[item.idx].Error = itemErr.Error()
					continue
				}

				results[item.idx].Success = true
				results[item.idx].Milestone = item.milestone
				touched[item.component.ID] = item.component
				if item.milestone.Name == entity.MilestoneWeldMade && item.milestone.IsCompleted != wasCompleted {
					weldSyncs = append(weldSyncs, item)
				}
			}

			for componentID := range touched {
				if err := s.recalculateComponent(ctx, tx, componentID); err != nil {
					return fmt.Errorf("recalculate completion: %w", err)
				}
			}

			for _, item := range weldSyncs {
				if err := s.syncFieldWeld(ctx, tx, item.component, item.milestone); err != nil {
					return err
				}
			}

			for i := range chunk {
				item := &chunk[i]
				if !results[item.idx].Success || len(item.changes) == 0 {
					continue
				}
				entry := &entity.AuditLog{
					ID:            uuid.New().String()[:32],
					ProjectID:     item.component.ProjectID,
					EntityType:    entity.AuditEntityComponentMilestone,
					EntityID:      item.milestone.ID,
					UserID:        userID,
					Action:        entity.AuditActionBulkUpdate,
					Changes:       item.changes,
					TransactionID: &transactionID,
				}
				if err := tx.Create(entry).Error; err != nil {
					return fmt.Errorf("write audit entry: %w", err)
				}
			}
			return nil
		})

		// A failed chunk transaction degrades to per-item failure
		// reporting: everything in the chunk rolled back.
		if chunkErr != nil {
			s.logger.Error("bulk update chunk failed",
				zap.String("transaction_id", transactionID),
				zap.Error(chunkErr))
			for i := range chunk {
				results[chunk[i].idx].Success = false
				results[chunk[i].idx].Milestone = nil
				results[chunk[i].idx].Error = chunkErr.Error()
			}
		}
	}

	successful, failed := 0, 0
	for _, r := range results {
		if r.Success {
			successful++
		} else {
			failed++
		}
	}

	txn := &entity.BulkTransaction{
		ID:           transactionID,
		ProjectID:    valid[0].component.ProjectID,
		UserID:       userID,
		SuccessCount: successful,
		FailureCount: failed,
		Status:       entity.TransactionStatusCompleted,
		CreatedAt:    now,
	}
	if err := s.auditRepo.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("record bulk transaction: %w", err)
	}

	if opts.Notify {
		s.notifier.BulkUpdateCompleted(ctx, txn.ProjectID, transactionID, successful, failed)
	}

	return &BulkResponse{
		Successful:    successful,
		Failed:        failed,
		TransactionID: transactionID,
		Results:       results,
	}, nil
}

// PreviewItem is one hypothetical outcome of a bulk preview.
type PreviewItem struct {
	ComponentID      string  `json:"component_id"`
	MilestoneName    string  `json:"milestone_name"`
	Valid            bool    `json:"valid"`
	Error            string  `json:"error,omitempty"`
	CurrentPercent   float64 `json:"current_percent"`
	ProjectedPercent float64 `json:"projected_percent"`
	CurrentStatus    string  `json:"current_status"`
	ProjectedStatus  string  `json:"projected_status"`
}

// PreviewBulkUpdate computes before/after completion values without
// persisting anything. Updates touching the same component stack, so
// the projected values reflect the whole submitted set.
func (s *MilestoneService) PreviewBulkUpdate(ctx context.Context, userID string, updates []MilestoneUpdate) ([]PreviewItem, error) {
	items := make([]PreviewItem, len(updates))
	memberCache := map[string]bool{}
	// Cloned milestone sets keyed by component, mutated in memory only.
	staged := make(map[string][]entity.ComponentMilestone)
	workflows := make(map[string]string)
	basePercent := make(map[string]float64)
	now := s.now()

	for i, upd := range updates {
		items[i] = PreviewItem{ComponentID: upd.ComponentID, MilestoneName: upd.MilestoneName}
		component, _, err := s.validateUpdate(ctx, userID, upd, memberCache)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}

		milestones, ok := staged[component.ID]
		if !ok {
			milestones = make([]entity.ComponentMilestone, len(component.Milestones))
			copy(milestones, component.Milestones)
			staged[component.ID] = milestones
			workflows[component.ID] = component.WorkflowType
			basePercent[component.ID] = CalculateCompletion(component.WorkflowType, milestones)
		}

		for j := range milestones {
			if milestones[j].Name == upd.MilestoneName {
				applyValue(&milestones[j], upd, userID, now)
				break
			}
		}

		projected := CalculateCompletion(workflows[component.ID], milestones)
		items[i].Valid = true
		items[i].CurrentPercent = basePercent[component.ID]
		items[i].ProjectedPercent = projected
		items[i].CurrentStatus = StatusForPercent(basePercent[component.ID])
		items[i].ProjectedStatus = StatusForPercent(projected)
	}

	return items, nil
}

// Conflict resolution strategies.
const (
	StrategyAcceptServer = "accept_server"
	StrategyAcceptClient = "accept_client"
	StrategyCustom       = "custom"
)

// ConflictValues carries the client-proposed milestone state for
// conflict resolution.
type ConflictValues struct {
	IsCompleted     *bool      `json:"is_completed"`
	PercentageValue *float64   `json:"percentage_value"`
	QuantityValue   *float64   `json:"quantity_value"`
	EffectiveDate   *time.Time `json:"effective_date"`
}

// ResolveConflict settles a concurrent-edit conflict on one milestone.
// accept_server keeps the stored state untouched; accept_client and
// custom persist the supplied values. A successful resolution
// recalculates completion and writes a CONFLICT_RESOLVED audit entry.
func (s *MilestoneService) ResolveConflict(ctx context.Context, userID, milestoneID, strategy string, values ConflictValues) (*entity.ComponentMilestone, error) {
	switch strategy {
	case StrategyAcceptServer, StrategyAcceptClient, StrategyCustom:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	milestone, err := s.componentRepo.FindMilestoneByID(ctx, milestoneID)
	if err != nil {
		return nil, err
	}
	component, err := s.componentRepo.FindByID(ctx, milestone.ComponentID)
	if err != nil {
		return nil, err
	}
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, component.ProjectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}

	if strategy == StrategyAcceptServer {
		return milestone, nil
	}

	now := s.now()
	wasCompleted := milestone.IsCompleted

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := applyConflictValues(milestone, component.WorkflowType, values, userID, now)
		if err := tx.Save(milestone).Error; err != nil {
			return fmt.Errorf("persist milestone: %w", err)
		}

		if milestone.Name == entity.MilestoneWeldMade && milestone.IsCompleted != wasCompleted {
			if err := s.syncFieldWeld(ctx, tx, component, milestone); err != nil {
				return err
			}
		}

		if err := s.recalculateComponent(ctx, tx, component.ID); err != nil {
			return fmt.Errorf("recalculate completion: %w", err)
		}

		if len(changes) > 0 {
			return tx.Create(&entity.AuditLog{
				ID:         uuid.New().String()[:32],
				ProjectID:  component.ProjectID,
				EntityType: entity.AuditEntityComponentMilestone,
				EntityID:   milestone.ID,
				UserID:     userID,
				Action:     entity.AuditActionConflictResolved,
				Changes:    changes,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ConflictResolved(ctx, component.ProjectID, milestone.ID)
	return milestone, nil
}

// UndoItemResult is the per-milestone outcome of an undo.
type UndoItemResult struct {
	MilestoneID string `json:"milestone_id"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// UndoResponse aggregates a transaction rollback.
type UndoResponse struct {
	TransactionID string           `json:"transaction_id"`
	Reverted      int              `json:"reverted"`
	Failed        int              `json:"failed"`
	Results       []UndoItemResult `json:"results"`
}

// UndoTransaction reverses a prior bulk operation by replaying the
// audit trail: every entry written under the transaction id is
// reverted to its recorded old values, bypassing normal validation.
// Individual revert failures are collected without aborting the rest.
func (s *MilestoneService) UndoTransaction(ctx context.Context, userID, transactionID string) (*UndoResponse, error) {
	txn, err := s.auditRepo.FindTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status == entity.TransactionStatusRolledBack {
		return nil, ErrAlreadyRolledBack
	}
	isMember, err := s.projectRepo.IsOrgMember(ctx, userID, txn.ProjectID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrAccessDenied
	}

	entries, err := s.auditRepo.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	// A transaction row without audit entries means every item failed
	// at persistence time, so there is no prior state to restore.
	if len(entries) == 0 {
		return nil, ErrTransactionPending
	}

	resp := &UndoResponse{TransactionID: transactionID}
	touched := make(map[string]string) // milestone ID -> component ID

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Newest first so a milestone touched twice lands back on its
		// pre-transaction values.
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			if entry.EntityType != entity.AuditEntityComponentMilestone {
				continue
			}

			result := UndoItemResult{MilestoneID: entry.EntityID}
			revertErr := tx.Transaction(func(itx *gorm.DB) error {
				var milestone entity.ComponentMilestone
				if err := itx.Where("id = ?", entry.EntityID).First(&milestone).Error; err != nil {
					return err
				}
				wasCompleted := milestone.IsCompleted
				if err := applyAuditOldValues(&milestone, entry.Changes); err != nil {
					return err
				}
				if err := itx.Save(&milestone).Error; err != nil {
					return err
				}
				touched[milestone.ID] = milestone.ComponentID

				if milestone.Name == entity.MilestoneWeldMade && milestone.IsCompleted != wasCompleted {
					var component entity.Component
					if err := itx.Where("id = ?", milestone.ComponentID).First(&component).Error; err != nil {
						return err
					}
					if err := s.syncFieldWeld(ctx, itx, &component, &milestone); err != nil {
						return err
					}
				}

				return itx.Create(&entity.AuditLog{
					ID:         uuid.New().String()[:32],
					ProjectID:  entry.ProjectID,
					EntityType: entity.AuditEntityComponentMilestone,
					EntityID:   entry.EntityID,
					UserID:     userID,
					Action:     entity.AuditActionUndo,
					Changes:    invertChanges(entry.Changes),
				}).Error
			})
			if revertErr != nil {
				result.Error = revertErr.Error()
			} else {
				result.Success = true
			}
			resp.Results = append(resp.Results, result)
		}

		components := make(map[string]bool)
		for _, componentID := range touched {
			if components[componentID] {
				continue
			}
			components[componentID] = true
			if err := s.recalculateComponent(ctx, tx, componentID); err != nil {
				return fmt.Errorf("recalculate completion: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.auditRepo.MarkRolledBack(ctx, transactionID); err != nil {
		return nil, fmt.Errorf("mark transaction rolled back: %w", err)
	}

	for _, r := range resp.Results {
		if r.Success {
			resp.Reverted++
		} else {
			resp.Failed++
		}
	}

	s.notifier.TransactionRolledBack(ctx, txn.ProjectID, transactionID)
	return resp, nil
}

// clampBatchSize bounds a requested batch size to [MinBatchSize,
// MaxBatchSize], defaulting when unset.
func clampBatchSize(size int) int {
	if size == 0 {
		return DefaultBatchSize
	}
	if size < MinBatchSize {
		return MinBatchSize
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}

// chunkResolved partitions items into ordered chunks of at most size.
func chunkResolved(items []resolvedUpdate, size int) [][]resolvedUpdate {
	var chunks [][]resolvedUpdate
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// applyValue mutates the milestone per the update's value kind,
// deriving IsCompleted and the completion metadata, and returns the
// per-field {old, new} change map for auditing. CompletedAt and
// CompletedBy move together: set on the transition to completed,
// cleared on the transition back.
func applyValue(m *entity.ComponentMilestone, upd MilestoneUpdate, userID string, now time.Time) entity.JSONB {
	oldCompleted := m.IsCompleted
	oldPercent := floatPtrValue(m.PercentageValue)
	oldQuantity := floatPtrValue(m.QuantityValue)
	oldEffective := datePtrValue(m.EffectiveDate)
	oldCompletedAt := timePtrValue(m.CompletedAt)
	oldCompletedBy := stringPtrValue(m.CompletedBy)
	oldWelder := stringPtrValue(m.WelderID)
	oldComments := m.Comments

	switch upd.Value.kind {
	case ValueKindPercentage:
		p := upd.Value.percent
		m.PercentageValue = &p
		m.IsCompleted = p >= 100
	case ValueKindQuantity:
		q := upd.Value.quantity
		m.QuantityValue = &q
		m.IsCompleted = m.QuantityTarget != nil && *m.QuantityTarget > 0 && q >= *m.QuantityTarget
	default:
		m.IsCompleted = upd.Value.completed
	}

	if upd.EffectiveDate != nil {
		d := dateOnly(*upd.EffectiveDate)
		m.EffectiveDate = &d
	}
	if upd.WelderID != nil {
		m.WelderID = upd.WelderID
	}
	if upd.Comments != "" {
		m.Comments = upd.Comments
	}

	if m.IsCompleted && !oldCompleted {
		m.CompletedAt = &now
		m.CompletedBy = &userID
	} else if !m.IsCompleted && oldCompleted {
		m.CompletedAt = nil
		m.CompletedBy = nil
	}

	changes := entity.JSONB{}
	addChange(changes, "is_completed", oldCompleted, m.IsCompleted)
	addChange(changes, "percentage_value", oldPercent, floatPtrValue(m.PercentageValue))
	addChange(changes, "quantity_value", oldQuantity, floatPtrValue(m.QuantityValue))
	addChange(changes, "effective_date", oldEffective, datePtrValue(m.EffectiveDate))
	addChange(changes, "completed_at", oldCompletedAt, timePtrValue(m.CompletedAt))
	addChange(changes, "completed_by", oldCompletedBy, stringPtrValue(m.CompletedBy))
	addChange(changes, "welder_id", oldWelder, stringPtrValue(m.WelderID))
	addChange(changes, "comments", oldComments, m.Comments)
	return changes
}

// applyConflictValues persists caller-supplied explicit values onto a
// milestone, deriving completion metadata the same way applyValue does.
func applyConflictValues(m *entity.ComponentMilestone, workflowType string, values ConflictValues, userID string, now time.Time) entity.JSONB {
	oldCompleted := m.IsCompleted
	oldPercent := floatPtrValue(m.PercentageValue)
	oldQuantity := floatPtrValue(m.QuantityValue)
	oldEffective := datePtrValue(m.EffectiveDate)
	oldCompletedAt := timePtrValue(m.CompletedAt)
	oldCompletedBy := stringPtrValue(m.CompletedBy)

	if values.PercentageValue != nil {
		p := clampPercent(*values.PercentageValue)
		m.PercentageValue = &p
		if workflowType == entity.WorkflowPercentage {
			m.IsCompleted = p >= 100
		}
	}
	if values.QuantityValue != nil {
		q := *values.QuantityValue
		m.QuantityValue = &q
		if workflowType == entity.WorkflowQuantity {
			m.IsCompleted = m.QuantityTarget != nil && *m.QuantityTarget > 0 && q >= *m.QuantityTarget
		}
	}
	if values.IsCompleted != nil {
		m.IsCompleted = *values.IsCompleted
	}
	if values.EffectiveDate != nil {
		d := dateOnly(*values.EffectiveDate)
		m.EffectiveDate = &d
	}

	if m.IsCompleted && !oldCompleted {
		m.CompletedAt = &now
		m.CompletedBy = &userID
	} else if !m.IsCompleted && oldCompleted {
		m.CompletedAt = nil
		m.CompletedBy = nil
	}

	changes := entity.JSONB{}
	addChange(changes, "is_completed", oldCompleted, m.IsCompleted)
	addChange(changes, "percentage_value", oldPercent, floatPtrValue(m.PercentageValue))
	addChange(changes, "quantity_value", oldQuantity, floatPtrValue(m.QuantityValue))
	addChange(changes, "effective_date", oldEffective, datePtrValue(m.EffectiveDate))
	addChange(changes, "completed_at", oldCompletedAt, timePtrValue(m.CompletedAt))
	addChange(changes, "completed_by", oldCompletedBy, stringPtrValue(m.CompletedBy))
	return changes
}

// applyAuditOldValues restores the {old} side of an audit change map
// onto a milestone. Used by undo, which deliberately bypasses the
// normal validator: it is restoring a previously valid state.
func applyAuditOldValues(m *entity.ComponentMilestone, changes entity.JSONB) error {
	if old, ok := oldValue(changes, "is_completed"); ok {
		b, isBool := old.(bool)
		if !isBool {
			return fmt.Errorf("audit entry: is_completed old value %v is not a bool", old)
		}
		m.IsCompleted = b
	}
	if old, ok := oldValue(changes, "percentage_value"); ok {
		f, err := floatOrNil(old)
		if err != nil {
			return fmt.Errorf("audit entry: percentage_value: %w", err)
		}
		m.PercentageValue = f
	}
	if old, ok := oldValue(changes, "quantity_value"); ok {
		f, err := floatOrNil(old)
		if err != nil {
			return fmt.Errorf("audit entry: quantity_value: %w", err)
		}
		m.QuantityValue = f
	}
	if old, ok := oldValue(changes, "effective_date"); ok {
		t, err := timeOrNil(old, "2006-01-02")
		if err != nil {
			return fmt.Errorf("audit entry: effective_date: %w", err)
		}
		m.EffectiveDate = t
	}
	if old, ok := oldValue(changes, "completed_at"); ok {
		t, err := timeOrNil(old, time.RFC3339Nano)
		if err != nil {
			return fmt.Errorf("audit entry: completed_at: %w", err)
		}
		m.CompletedAt = t
	}
	if old, ok := oldValue(changes, "completed_by"); ok {
		m.CompletedBy = stringOrNil(old)
	}
	if old, ok := oldValue(changes, "welder_id"); ok {
		m.WelderID = stringOrNil(old)
	}
	if old, ok := oldValue(changes, "comments"); ok {
		if s, isString := old.(string); isString {
			m.Comments = s
		} else {
			m.Comments = ""
		}
	}
	return nil
}

// invertChanges swaps old and new, describing the undo mutation.
func invertChanges(changes entity.JSONB) entity.JSONB {
	inverted := entity.JSONB{}
	for field, raw := range changes {
		pair, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		inverted[field] = map[string]interface{}{
			"old": pair["new"],
			"new": pair["old"],
		}
	}
	return inverted
}

func oldValue(changes entity.JSONB, field string) (interface{}, bool) {
	raw, ok := changes[field]
	if !ok {
		return nil, false
	}
	pair, ok := raw.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return pair["old"], true
}

func floatOrNil(v interface{}) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("%v is not a number", v)
	}
	return &f, nil
}

func stringOrNil(v interface{}) *string {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func timeOrNil(v interface{}, layout string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("%v is not a timestamp", v)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		// Audit writers may use either layout for dates.
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return &t2, nil
		}
		return nil, err
	}
	return &t, nil
}

func addChange(changes entity.JSONB, field string, oldV, newV interface{}) {
	if oldV == newV {
		return
	}
	changes[field] = map[string]interface{}{"old": oldV, "new": newV}
}

func floatPtrValue(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func stringPtrValue(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func datePtrValue(p *time.Time) interface{} {
	if p == nil {
		return nil
	}
	return p.Format("2006-01-02")
}

func timePtrValue(p *time.Time) interface{} {
	if p == nil {
		return nil
	}
	return p.Format(time.RFC3339Nano)
}

