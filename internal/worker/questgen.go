package worker

import (
	"context"
	"errors"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/service"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/go-co-op/gocron/v2"
)

// QuestGenWorker keeps the catalog stocked by generating a quest on a fixed
// schedule until the keyword pool runs dry.
type QuestGenWorker struct {
	gen       service.QuestGeneratorI
	scheduler gocron.Scheduler
	interval  time.Duration
}

func NewQuestGenWorker(gen service.QuestGeneratorI, interval time.Duration) (*QuestGenWorker, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &QuestGenWorker{
		gen:       gen,
		scheduler: scheduler,
		interval:  interval,
	}, nil
}

func (w *QuestGenWorker) Start() error {
	_, err := w.scheduler.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(w.run),
	)
	if err != nil {
		return err
	}

	w.scheduler.Start()
	logger.Logger().Info("quest generation worker started",
		zap.Duration("interval", w.interval))
	return nil
}

func (w *QuestGenWorker) Stop() error {
	return w.scheduler.Shutdown()
}

func (w *QuestGenWorker) run() {
	log := logger.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	quest, err := w.gen.Generate(ctx)
	if err != nil {
		if errors.Is(err, service.ErrNoUnusedKeywords) {
			log.Info("keyword pool exhausted, skipping quest generation")
			return
		}
		log.Error("scheduled quest generation failed", zap.Error(err))
		return
	}

	log.Info("scheduled quest generated", zap.String("quest_id", quest.ID.String()))
}
