package service

import (
	"context"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"gorm.io/gorm"
)

// CalculateCompletion derives a component's aggregate completion
// percentage from its milestone set. The math depends on the workflow
// type:
//
//	MILESTONE_DISCRETE:   sum of completed weights / sum of all weights
//	MILESTONE_PERCENTAGE: weight-normalized average of percentage values
//	MILESTONE_QUANTITY:   weight-normalized average of quantity/target;
//	                      milestones without a target contribute zero
//
// A milestone with no weight counts as weight 1. The result is clamped
// to [0, 100].
func CalculateCompletion(workflowType string, milestones []entity.ComponentMilestone) float64 {
	if len(milestones) == 0 {
		return 0
	}

	var totalWeight, earned float64
	for _, m := range milestones {
		w := milestoneWeight(m)
		totalWeight += w

		switch workflowType {
		case entity.WorkflowPercentage:
			if m.PercentageValue != nil {
				earned += w * *m.PercentageValue
			}
		case entity.WorkflowQuantity:
			if m.QuantityTarget != nil && *m.QuantityTarget > 0 && m.QuantityValue != nil {
				earned += w * (*m.QuantityValue / *m.QuantityTarget) * 100
			}
		default: // MILESTONE_DISCRETE
			if m.IsCompleted {
				earned += w * 100
			}
		}
	}

	if totalWeight == 0 {
		return 0
	}
	return clampPercent(earned / totalWeight)
}

// StatusForPercent maps a completion percentage onto the derived
// component status.
func StatusForPercent(percent float64) string {
	switch {
	case percent <= 0:
		return entity.ComponentStatusNotStarted
	case percent >= 100:
		return entity.ComponentStatusCompleted
	default:
		return entity.ComponentStatusInProgress
	}
}

func milestoneWeight(m entity.ComponentMilestone) float64 {
	if m.Weight <= 0 {
		return 1
	}
	return m.Weight
}

func clampPercent(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// recalculateComponent recomputes and persists completion percent and
// status for one component inside the given transaction. A missing
// component is a no-op.
func (s *MilestoneService) recalculateComponent(ctx context.Context, tx *gorm.DB, componentID string) error {
	var component entity.Component
	err := tx.WithContext(ctx).Where("id = ?", componentID).First(&component).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}

	var milestones []entity.ComponentMilestone
	if err := tx.WithContext(ctx).
		Where("component_id = ?", componentID).
		Order("sort_order ASC").
		Find(&milestones).Error; err != nil {
		return err
	}

	percent := CalculateCompletion(component.WorkflowType, milestones)
	status := StatusForPercent(percent)

	return tx.WithContext(ctx).
		Model(&entity.Component{}).
		Where("id = ?", componentID).
		Updates(map[string]interface{}{
			"completion_percent": percent,
			"status":             status,
		}).Error
}
