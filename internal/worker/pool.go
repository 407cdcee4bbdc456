package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"linecue-backend/internal/models"
	"linecue-backend/internal/repository"
	"linecue-backend/internal/services"
)

// Pool runs script imports pulled off the Redis queue: extract text from the
// uploaded file, segment it into blocks, and publish progress over pub/sub.
type Pool struct {
	redis       *redis.Client
	gemini      *services.GeminiService
	fileExtract *services.FileExtractService
	segmenter   *services.Segmenter
	jobRepo     *repository.JobRepo
	docRepo     *repository.DocumentRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	gemini *services.GeminiService,
	fileExtract *services.FileExtractService,
	segmenter *services.Segmenter,
	jobRepo *repository.JobRepo,
	docRepo *repository.DocumentRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		gemini:      gemini,
		fileExtract: fileExtract,
		segmenter:   segmenter,
		jobRepo:     jobRepo,
		docRepo:     docRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{"queue:script-import"}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d import worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		switch job.Type {
		case "script-import":
			processErr = p.processImport(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processImport runs the import pipeline for one uploaded script. Extraction
// failure fails the job; a structuring failure does not, the segmenter falls
// back to the pattern split internally.
func (p *Pool) processImport(ctx context.Context, job *models.Job) error {
	var config struct {
		FilePath string `json:"file_path"`
	}
	json.Unmarshal(job.ConfigJSON, &config)
	if config.FilePath == "" {
		return fmt.Errorf("import job has no file path")
	}

	doc, err := p.docRepo.GetByID(ctx, job.ReferenceID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	p.docRepo.UpdateStatus(ctx, doc.ID, "processing")

	p.publishStep(ctx, job, 1, "Extracting text")

	rawText, err := p.fileExtract.ExtractTextFromPath(config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", config.FilePath, err)
	}

	p.publishStep(ctx, job, 2, "Structuring script")

	blocks := p.segmenter.Segment(ctx, rawText, doc.ID)
	if len(blocks) == 0 {
		return fmt.Errorf("script produced no usable text blocks")
	}

	p.publishStep(ctx, job, 3, "Saving blocks")

	if err := p.docRepo.ReplaceBlocks(ctx, doc.ID, blocks); err != nil {
		return fmt.Errorf("failed to save text blocks: %w", err)
	}

	preview := rawText
	if runes := []rune(preview); len(runes) > 1000 {
		preview = string(runes[:1000])
	}
	if err := p.docRepo.FinishImport(ctx, doc.ID, preview, len(blocks)); err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}

	log.Printf("Imported document %s (%d blocks)", doc.ID, len(blocks))
	return nil
}

func (p *Pool) publishStep(ctx context.Context, job *models.Job, step int, name string) {
	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			JobID:    job.ID,
			Step:     step,
			StepName: name,
		},
	})
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	blockCount := 0
	if doc, err := p.docRepo.GetByID(ctx, job.ReferenceID); err == nil {
		blockCount = doc.BlockCount
	}

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "completed",
		Payload: models.CompletedEvent{
			JobID:      job.ID,
			DocumentID: job.ReferenceID,
			BlockCount: blockCount,
		},
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	errMsg := err.Error()
	log.Printf("Job %s failed: %s", job.ID, errMsg)

	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg)
	p.docRepo.UpdateStatus(ctx, job.ReferenceID, "failed")

	p.gemini.PublishUpdate(ctx, job.UserID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			ErrorCode:    "IMPORT_FAILED",
			ErrorMessage: errMsg,
		},
	})
}
