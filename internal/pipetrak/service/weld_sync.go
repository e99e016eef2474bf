package service

import (
	"context"
	"errors"

	"github.com/clachance14/pipetrak/internal/pipetrak/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// syncFieldWeld mirrors a "Weld Made" completion transition onto the
// paired field weld record. Completing the milestone stamps the weld
// date (the update's effective date, falling back to the completion
// time) plus welder and comments when supplied; un-completing clears
// all three. A component without a weld identifier is a logged no-op.
func (s *MilestoneService) syncFieldWeld(ctx context.Context, tx *gorm.DB, component *entity.Component, milestone *entity.ComponentMilestone) error {
	if component.WeldID == nil || *component.WeldID == "" {
		s.logger.Info("weld made transition on component without weld id, skipping sync",
			zap.String("component_id", component.ID),
			zap.String("milestone_id", milestone.ID))
		return nil
	}

	var weld entity.FieldWeld
	err := tx.WithContext(ctx).
		Where("project_id = ? AND weld_id = ?", component.ProjectID, *component.WeldID).
		First(&weld).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("no field weld record for component weld id, skipping sync",
				zap.String("component_id", component.ID),
				zap.String("weld_id", *component.WeldID))
			return nil
		}
		return err
	}

	if milestone.IsCompleted {
		weldDate := milestone.CompletedAt
		if milestone.EffectiveDate != nil {
			weldDate = milestone.EffectiveDate
		}
		weld.DateWelded = weldDate
		if milestone.WelderID != nil {
			weld.WelderID = milestone.WelderID
		}
		if milestone.Comments != "" {
			weld.Comments = milestone.Comments
		}
	} else {
		weld.DateWelded = nil
		weld.WelderID = nil
		weld.Comments = ""
	}

	return tx.WithContext(ctx).Save(&weld).Error
}
