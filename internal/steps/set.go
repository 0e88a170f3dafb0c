package steps

import (
	"log/slog"

	"overdub/internal/approvals"
	"overdub/internal/config"
	"overdub/internal/notifications"
	"overdub/internal/outputs"
	"overdub/internal/review"
	"overdub/internal/services/translator"
	"overdub/internal/subtitles"
	"overdub/internal/workflow"
)

// Deps carries the shared services the stage handlers are built from.
type Deps struct {
	Translator  translator.Client
	Copier      *outputs.Copier
	Coordinator *review.Coordinator
	Fetcher     subtitles.Fetcher
	Hub         *approvals.Hub
	Notifier    notifications.Service
}

// NewStageSet wires every stage handler against the shared services.
func NewStageSet(cfg *config.Config, deps Deps, logger *slog.Logger) workflow.StageSet {
	return workflow.StageSet{
		Validator:          NewValidator(cfg, logger),
		TranslationCreator: NewTranslationCreator(cfg, deps.Translator, logger),
		ReadinessWaiter:    NewReadinessWaiter(cfg, deps.Translator, logger),
		IterationCreator:   NewIterationCreator(cfg, deps.Translator, logger),
		ProcessingWaiter:   NewProcessingWaiter(cfg, deps.Translator, logger),
		OutputCopier:       NewOutputCopier(cfg, deps.Copier, logger),
		Reviewer:           NewReviewer(deps.Coordinator, deps.Fetcher, logger),
		ApprovalGate:       NewApprovalGate(cfg, deps.Hub, deps.Notifier, logger),
	}
}
