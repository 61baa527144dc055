// Планировщик фоновых задач обслуживания.
package cronmanager

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

type CronJobFunc func()

type Job struct {
	Func     CronJobFunc
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher  *cron.Cron
	jobs        map[string]cron.EntryID
	mu          sync.Mutex
	jobRegistry JobRegistry
}

func NewCronManager(jobRegistry JobRegistry) *CronManager {
	return &CronManager{
		dispatcher:  cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		jobs:        make(map[string]cron.EntryID),
		jobRegistry: jobRegistry,
	}
}

// LoadJobs заново ставит в расписание все задачи реестра. Возвращает ошибку первой задачи с неверным расписанием,
// остальные задачи при этом все равно добавляются.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, entryID := range cm.jobs {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}

	var firstErr error
	for name, job := range cm.jobRegistry {
		id, err := cm.dispatcher.AddFunc(job.Schedule, job.Func)
		if err != nil {
			slog.Error("Failed to add job", "name", name, "schedule", job.Schedule, "err", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("add job '%s': %w", name, err)
			}
			continue
		}
		cm.jobs[name] = id
	}
	return firstErr
}

func (cm *CronManager) RemoveJob(name string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if entryID, exists := cm.jobs[name]; exists {
		cm.dispatcher.Remove(entryID)
		delete(cm.jobs, name)
	}
}

// Scheduled возвращает имена задач, стоящих в расписании.
func (cm *CronManager) Scheduled() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	res := make([]string, 0, len(cm.jobs))
	for name := range cm.jobs {
		res = append(res, name)
	}
	return res
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

func (cm *CronManager) Stop() {
	<-cm.dispatcher.Stop().Done()
}
