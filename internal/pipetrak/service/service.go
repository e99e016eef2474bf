package service

import (
	"github.com/clachance14/pipetrak/internal/pipetrak/repository"
	"github.com/clachance14/pipetrak/internal/realtime"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services aggregates all business logic services.
type Services struct {
	Milestone *MilestoneService
	Component *ComponentService
	Template  *TemplateService
	Notifier  *Notifier
}

// NewServices wires the service layer over the repositories.
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, hub *realtime.Hub, logger *zap.Logger) *Services {
	notifier := NewNotifier(rdb, hub, logger)
	return &Services{
		Milestone: NewMilestoneService(db, repos, notifier, logger),
		Component: NewComponentService(repos.Component, repos.Template, repos.Project),
		Template:  NewTemplateService(repos.Template, repos.Project),
		Notifier:  notifier,
	}
}
